// Package export writes docset inventories as CSV files.
package export

// Header is the inventory CSV header.
var Header = []string{
	"docset", "file", "url", "ms.author", "ms.reviewer", "ms.date",
	"refLine", "refType", "refDetail", "refUrl",
}

// HistoryHeader is appended to Header when rows carry commit history.
var HistoryHeader = []string{
	"commitsSinceStart", "commitsSinceLocal", "mostRecent", "mostRecentUrl",
}

// Extension is the file extension of inventory files.
const Extension = ".csv"

// Options configures a CSV export.
type Options struct {
	// WithHistory adds the commit history columns.
	WithHistory bool
}
