package domain

import (
	"golang.org/x/text/unicode/norm"
)

// Site is one of the fixed experimental locations. Each site grows the same crop
// under its own target nutrient-solution concentration (EC).
type Site struct {
	Name     string  `json:"name"`
	TargetEC float64 `json:"target_ec"`
	Color    string  `json:"color"`
}

// ReferenceOptimalEC is the EC level the study reports as optimal on the overview tab.
const ReferenceOptimalEC = 2.0

// AllSites is the site filter value selecting every site. AllSitesLabel is
// the same selection as shown in the site picker.
const (
	AllSites      = "all"
	AllSitesLabel = "전체"
)

// sites is ordered; every view that lists sites uses this order.
var sites = []Site{
	{Name: "송도고", TargetEC: 1.0, Color: "#1f77b4"},
	{Name: "하늘고", TargetEC: 2.0, Color: "#2ca02c"},
	{Name: "아라고", TargetEC: 4.0, Color: "#ff7f0e"},
	{Name: "동산고", TargetEC: 8.0, Color: "#d62728"},
}

// Sites returns the fixed site table in display order.
func Sites() []Site {
	out := make([]Site, len(sites))
	copy(out, sites)
	return out
}

// SiteNames returns the names of the fixed sites in display order.
func SiteNames() []string {
	names := make([]string, len(sites))
	for i, s := range sites {
		names[i] = s.Name
	}
	return names
}

// LookupSite finds a site by name. Names are compared after NFC normalization
// so that sheet or file names produced on different platforms still match.
func LookupSite(name string) (Site, bool) {
	key := norm.NFC.String(name)
	for _, s := range sites {
		if s.Name == key {
			return s, true
		}
	}
	return Site{}, false
}

// TargetECFor returns the target EC of the named site, or nil when the name is
// not part of the site table.
func TargetECFor(name string) *float64 {
	s, ok := LookupSite(name)
	if !ok {
		return nil
	}
	ec := s.TargetEC
	return &ec
}

// ColorFor returns the display color of the named site. Unknown names get a neutral gray.
func ColorFor(name string) string {
	if s, ok := LookupSite(name); ok {
		return s.Color
	}
	return "#7f7f7f"
}
