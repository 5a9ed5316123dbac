package domain

// PlayerProfile holds the fields of a Hypixel player object used for
// classification. Zero values mean the field was absent.
type PlayerProfile struct {
	UUID               string `json:"uuid"`
	DisplayName        string `json:"displayname"`
	Rank               string `json:"rank"`
	MonthlyPackageRank string `json:"monthlyPackageRank"`
	NewPackageRank     string `json:"newPackageRank"`
	PackageRank        string `json:"packageRank"`
	LastLogin          int64  `json:"lastLogin"`
	LastLogout         int64  `json:"lastLogout"`
}
