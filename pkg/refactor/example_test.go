package refactor_test

import (
	"fmt"
	"log"

	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
)

// Example demonstrates matching a deployed resource pool against a local one
// after a rename that cascades through a dependent resource.
func Example_renameCascade() {
	props := map[string]interface{}{"BucketName": "reports"}

	deployed, err := refactor.BuildPool([]refactor.Stack{{
		Name: "Stack1",
		Resources: []refactor.Resource{
			{
				Type: "AWS::S3::Bucket", Path: "Stack1/OldName/Resource",
				StackName: "Stack1", LogicalID: "OldName1A2B3C", Properties: props,
			},
			{
				Type: "AWS::S3::BucketPolicy", Path: "Stack1/OldName/Policy/Resource",
				StackName: "Stack1", LogicalID: "OldNamePolicy4D5E",
				Properties: map[string]interface{}{
					"Bucket": map[string]interface{}{"Ref": "OldName1A2B3C"},
				},
			},
		},
	}})
	if err != nil {
		log.Fatal(err)
	}

	local, err := refactor.BuildPool([]refactor.Stack{{
		Name: "Stack1",
		Resources: []refactor.Resource{
			{
				Type: "AWS::S3::Bucket", Path: "Stack1/Reports/Resource",
				StackName: "Stack1", LogicalID: "Reports9F8E7D", Properties: props,
			},
			{
				Type: "AWS::S3::BucketPolicy", Path: "Stack1/Reports/Policy/Resource",
				StackName: "Stack1", LogicalID: "ReportsPolicy6C5B",
				Properties: map[string]interface{}{
					"Bucket": map[string]interface{}{"Ref": "Reports9F8E7D"},
				},
			},
		},
	}})
	if err != nil {
		log.Fatal(err)
	}

	result := refactor.Match(deployed, local)
	for _, m := range result.Mappings {
		fmt.Printf("%s: %s -> %s\n", m.Type, m.SourcePath, m.DestinationPath)
	}

	// Output:
	// AWS::S3::BucketPolicy: Stack1/OldName/Policy/Resource -> Stack1/Reports/Policy/Resource
	// AWS::S3::Bucket: Stack1/OldName/Resource -> Stack1/Reports/Resource
}
