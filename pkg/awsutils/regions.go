package awsutils

import "github.com/aws/aws-sdk-go/aws/endpoints"

// IsValidRegion reports whether a region is a known aws region identifier,
// in any of the partitions known by the SDK.
func IsValidRegion(region string) bool {
	for _, p := range endpoints.DefaultPartitions() {
		if _, ok := p.Regions()[region]; ok {
			return true
		}
	}
	return false
}
