package etl

import "github.com/crimeprep/internal/records"

// DropMissingCommunity removes rows without a community_name and returns the
// number removed. Survivors keep their relative order.
func DropMissingCommunity(f *records.Frame) (int, error) {
	if err := f.Require(records.ColCommunityName); err != nil {
		return 0, err
	}
	return f.Filter(func(r *records.Incident) bool {
		return r.CommunityName != nil
	}), nil
}
