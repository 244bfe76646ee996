package market

// PoolABI covers the Balancer-style data pool surface the client touches:
// the ERC20 share token (approve/balanceOf/totalSupply), the two liquidity
// entry/exit calls and the read-only quote helpers.
const PoolABI = `[
	{
		"inputs": [
			{"name": "dst", "type": "address"},
			{"name": "amt", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "whom", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "totalSupply",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokenIn", "type": "address"},
			{"name": "tokenAmountIn", "type": "uint256"},
			{"name": "minPoolAmountOut", "type": "uint256"}
		],
		"name": "joinswapExternAmountIn",
		"outputs": [{"name": "poolAmountOut", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokenOut", "type": "address"},
			{"name": "tokenAmountOut", "type": "uint256"},
			{"name": "maxPoolAmountIn", "type": "uint256"}
		],
		"name": "exitswapExternAmountOut",
		"outputs": [{"name": "poolAmountIn", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getSwapFee",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "token", "type": "address"}],
		"name": "getBalance",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "token", "type": "address"}],
		"name": "getDenormalizedWeight",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getTotalDenormalizedWeight",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getCurrentTokens",
		"outputs": [{"name": "tokens", "type": "address[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokenBalanceIn", "type": "uint256"},
			{"name": "tokenWeightIn", "type": "uint256"},
			{"name": "poolSupply", "type": "uint256"},
			{"name": "totalWeight", "type": "uint256"},
			{"name": "tokenAmountIn", "type": "uint256"},
			{"name": "swapFee", "type": "uint256"}
		],
		"name": "calcPoolOutGivenSingleIn",
		"outputs": [{"name": "poolAmountOut", "type": "uint256"}],
		"stateMutability": "pure",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokenBalanceOut", "type": "uint256"},
			{"name": "tokenWeightOut", "type": "uint256"},
			{"name": "poolSupply", "type": "uint256"},
			{"name": "totalWeight", "type": "uint256"},
			{"name": "poolAmountIn", "type": "uint256"},
			{"name": "swapFee", "type": "uint256"}
		],
		"name": "calcSingleOutGivenPoolIn",
		"outputs": [{"name": "tokenAmountOut", "type": "uint256"}],
		"stateMutability": "pure",
		"type": "function"
	}
]`
