package services

import (
	"github.com/cloudemu/zero/internal/constants"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// Region used in regional ARNs.
const Region = "local"

func buildARN(service, region, resource string) string {
	return arn.ARN{
		Partition: constants.ARNPartition,
		Service:   service,
		Region:    region,
		AccountID: constants.AccountID,
		Resource:  resource,
	}.String()
}

// IAMArn returns the ARN of an IAM principal, e.g. arn:zero:iam::000000:user/alice.
func IAMArn(kind, name string) string {
	return buildARN("iam", "", kind+"/"+name)
}

// ELBArn returns the ARN of a load-balancing resource.
func ELBArn(resource string) string {
	return buildARN("elasticloadbalancing", "", resource)
}

// EKSArn returns the ARN of an EKS resource.
func EKSArn(resource string) string {
	return buildARN("eks", Region, resource)
}

// ParseARN parses s and checks it belongs to the zero partition and the
// given service.
func ParseARN(s, service string) (arn.ARN, bool) {
	if !arn.IsARN(s) {
		return arn.ARN{}, false
	}
	parsed, err := arn.Parse(s)
	if err != nil {
		return arn.ARN{}, false
	}
	return parsed, parsed.Partition == constants.ARNPartition && parsed.Service == service
}
