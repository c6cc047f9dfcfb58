package database

const (
	SortCodeAsc     = "code_asc"
	SortCodeNat     = "code_nat"
	SortCreatedDesc = "created_desc"
	SortCreatedAsc  = "created_asc"
)

const DefaultSortOrder = SortCodeNat

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortCodeAsc, SortCreatedDesc, SortCreatedAsc, SortCodeNat:
		return true
	default:
		return false
	}
}
