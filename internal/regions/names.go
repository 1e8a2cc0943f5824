// Package regions maps Azure region codes, their common abbreviations and
// availability zone identifiers to display names.
package regions

import (
	"unicode"
	"unicode/utf8"
)

var displayNames = map[string]string{
	"francecentral":      "France Central",
	"francesouth":        "France South",
	"westeurope":         "West Europe",
	"northeurope":        "North Europe",
	"centralus":          "Central US",
	"eastus":             "East US",
	"eastus2":            "East US 2",
	"westus":             "West US",
	"westus2":            "West US 2",
	"westus3":            "West US 3",
	"eastasia":           "East Asia",
	"southeastasia":      "Southeast Asia",
	"australiaeast":      "Australia East",
	"australiasoutheast": "Australia Southeast",
	"australiacentral":   "Australia Central",
	"australiacentral2":  "Australia Central 2",
	"brazilsouth":        "Brazil South",
	"brazilsoutheast":    "Brazil Southeast",
	"canadacentral":      "Canada Central",
	"canadaeast":         "Canada East",
	"chinaeast":          "China East",
	"chinaeast2":         "China East 2",
	"chinanorth":         "China North",
	"chinanorth2":        "China North 2",
	"chinanorth3":        "China North 3",
	"germanywestcentral": "Germany West Central",
	"germanynorth":       "Germany North",
	"indiacentral":       "India Central",
	"indiawest":          "India West",
	"indiasouth":         "India South",
	"japaneast":          "Japan East",
	"japanwest":          "Japan West",
	"koreacentral":       "Korea Central",
	"koreasouth":         "Korea South",
	"norwayeast":         "Norway East",
	"norwaywest":         "Norway West",
	"southafricanorth":   "South Africa North",
	"southafricawest":    "South Africa West",
	"southcentralus":     "South Central US",
	"southindia":         "South India",
	"swedencentral":      "Sweden Central",
	"swedensouth":        "Sweden South",
	"switzerlandnorth":   "Switzerland North",
	"switzerlandwest":    "Switzerland West",
	"uaecentral":         "UAE Central",
	"uaenorth":           "UAE North",
	"uksouth":            "UK South",
	"ukwest":             "UK West",
	"westcentralus":      "West Central US",
	"northcentralus":     "North Central US",
	"eastus2euap":        "East US 2 EUAP",
	"centraluseuap":      "Central US EUAP",
	"austriaeast":        "Austria East",
	"chilecentral":       "Chile Central",
	"italynorth":         "Italy North",
	"israelcentral":      "Israel Central",
	"polandcentral":      "Poland Central",
	"qatarcentral":       "Qatar Central",
	"spaincentral":       "Spain Central",
	"taiwannorth":        "Taiwan North",
	"taiwannorthwest":    "Taiwan Northwest",
	"mexicocentral":      "Mexico Central",
	"belgiumcentral":     "Belgium Central",
	"ea":                 "East Asia",
	"sea":                "Southeast Asia",
	"we":                 "West Europe",
	"ne":                 "North Europe",
	"frc":                "France Central",
	"frs":                "France South",
	"cus":                "Central US",
	"eus":                "East US",
	"eus2":               "East US 2",
	"wus":                "West US",
	"wus2":               "West US 2",
	"wus3":               "West US 3",
	"scus":               "South Central US",
	"ncus":               "North Central US",
	"wcus":               "West Central US",
	"ae":                 "Australia East",
	"ase":                "Australia Southeast",
	"acl":                "Australia Central",
	"acl2":               "Australia Central 2",
	"brs":                "Brazil South",
	"brse":               "Brazil Southeast",
	"cnc":                "Canada Central",
	"cae":                "Canada East",
	"gwc":                "Germany West Central",
	"gn":                 "Germany North",
	"inc":                "India Central",
	"inw":                "India West",
	"ins":                "India South",
	"jpe":                "Japan East",
	"jpw":                "Japan West",
	"krc":                "Korea Central",
	"krs":                "Korea South",
	"noe":                "Norway East",
	"now":                "Norway West",
	"san":                "South Africa North",
	"saw":                "South Africa West",
	"sdc":                "Sweden Central",
	"sds":                "Sweden South",
	"szn":                "Switzerland North",
	"szw":                "Switzerland West",
	"uac":                "UAE Central",
	"uan":                "UAE North",
	"uks":                "UK South",
	"ukw":                "UK West",
	"clc":                "Chile Central",
	"itn":                "Italy North",
	"isc":                "Israel Central",
	"plc":                "Poland Central",
	"qac":                "Qatar Central",
	"spc":                "Spain Central",
	"twn":                "Taiwan North",
	"twnw":               "Taiwan Northwest",
	"mxc":                "Mexico Central",
	"nzn":                "New Zealand North",
	"nwe":                "Norway East",
	"idc":                "Indonesia Central",
	"myw":                "Malaysia West",
	"ilc":                "Israel Central",
	"bec":                "Belgium Central",
	"az1":                "Availability Zone 1",
	"az2":                "Availability Zone 2",
	"az3":                "Availability Zone 3",
	"unknown":            "Unknown Region",
}

// DisplayName returns the human-readable name of a region or zone code.
// Unknown codes are returned with their first letter upper-cased.
func DisplayName(code string) string {
	if name, ok := displayNames[code]; ok {
		return name
	}
	r, size := utf8.DecodeRuneInString(code)
	if r == utf8.RuneError {
		return code
	}
	return string(unicode.ToUpper(r)) + code[size:]
}

// Namer resolves display names. DisplayName satisfies it.
type Namer func(code string) string
