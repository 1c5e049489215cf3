package airquality

// Site is one entry in the fixed monitoring site catalog.
type Site struct {
	Code string
	Name string
}

// siteCatalog maps site codes to display names for the supported south-west
// London monitoring network.
var siteCatalog = map[string]string{
	"WA2": "Wandsworth Town Hall",
	"WA7": "Putney High Street",
	"WA8": "Putney High Street facade",
	"WA9": "Felsham Road, Putney",
	"WAA": "Thessaly Road, Battersea",
	"WAB": "Tooting High Street",
	"WAC": "Lavander Hill, Clapham Junction",
	"ME2": "Merton Road, South Wimbledon",
	"ME9": "Civic Centre, Morden",
	"RI1": "Castlenau Library, Barnes",
	"RI2": "Wetland Centre, Barnes",
}

// siteOrder fixes a stable display order for the catalog.
var siteOrder = []string{
	"WA2", "WA7", "WA8", "WA9", "WAA", "WAB", "WAC", "ME2", "ME9", "RI1", "RI2",
}

// Sites returns the full site catalog in display order.
func Sites() []Site {
	sites := make([]Site, 0, len(siteOrder))
	for _, code := range siteOrder {
		sites = append(sites, Site{Code: code, Name: siteCatalog[code]})
	}
	return sites
}

// SiteName returns the display name for a site code. Unknown codes fall
// back to the code itself.
func SiteName(code string) string {
	if name, ok := siteCatalog[code]; ok {
		return name
	}
	return code
}

// KnownSite reports whether the code is part of the catalog.
func KnownSite(code string) bool {
	_, ok := siteCatalog[code]
	return ok
}
