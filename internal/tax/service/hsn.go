package service

import "strings"

// SAC codes for the metered service categories. 998314 (IT design and
// development) is the catch-all for anything unrecognized.
const defaultHSNSACCode = "998314"

var serviceHSNSACCodes = map[string]string{
	"compute":        "998314",
	"block_storage":  "998315",
	"object_storage": "998315",
	"bandwidth":      "998412",
	"kubernetes":     "998315",
	"database":       "998315",
	"cloud":          "998314",
	"hosting":        "998315",
}

func lookupHSNSAC(serviceCategory string) string {
	category := strings.ToLower(strings.TrimSpace(serviceCategory))
	if code, ok := serviceHSNSACCodes[category]; ok {
		return code
	}
	return defaultHSNSACCode
}
