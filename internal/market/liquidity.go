package market

// SharesPercentage is the stored-record percentage: the account's claim on the
// current total supply. Returns 0 when either side is zero.
func SharesPercentage(shares, totalSupply float64) float64 {
	if shares == 0 || totalSupply == 0 {
		return 0
	}
	return shares / totalSupply * 100
}

// PreviewSharesPercentage is the add-liquidity preview percentage, computed
// against the supply as it would be after the new shares are minted.
//
// The two bases intentionally differ; see SharesPercentage. This mirrors the
// upstream behavior and is kept rather than unified.
func PreviewSharesPercentage(newShares, totalSupply float64) float64 {
	if newShares == 0 || totalSupply == 0 {
		return 0
	}
	return newShares / (totalSupply + newShares) * 100
}

// HasShares reports whether the account holds shares for the asset. Callers
// use it to guard TotalUserLiquidityInPool, which is undefined on an empty
// position.
func HasShares(shares SharesByDataAssetID, assetID string) bool {
	record, ok := shares[assetID]
	return ok && record.Shares > 0 && record.TotalPoolSupply > 0
}

// TotalUserLiquidityInPool values the account's claim on both pool reserves in
// OCEAN: fraction*reserveOcean + fraction*reserveDatatoken*price. With a zero
// total supply the result is NaN; callers guard with HasShares before display.
func TotalUserLiquidityInPool(shares SharesByDataAssetID, asset *Asset) float64 {
	record := shares[asset.ID]
	fraction := record.Shares / record.TotalPoolSupply
	userOcean := fraction * asset.Price.Ocean
	userDatatoken := fraction * asset.Price.Datatoken
	return userOcean + userDatatoken*asset.Price.Value
}
