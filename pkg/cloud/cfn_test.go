package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
)

type fakeCFN struct {
	regions  []string
	listErr  error
	template string
}

func (f *fakeCFN) ListStacks(_ context.Context, _ *cloudformation.ListStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.ListStacksOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &cloudformation.ListStacksOutput{
		StackSummaries: []types.StackSummary{
			{
				StackName:   aws.String("Stack1"),
				StackId:     aws.String("arn:aws:cloudformation:us-east-1:1:stack/Stack1/x"),
				StackStatus: types.StackStatusUpdateComplete,
			},
		},
	}, nil
}

func (f *fakeCFN) GetTemplate(_ context.Context, _ *cloudformation.GetTemplateInput, _ ...func(*cloudformation.Options)) (*cloudformation.GetTemplateOutput, error) {
	return &cloudformation.GetTemplateOutput{TemplateBody: aws.String(f.template)}, nil
}

func fakeProvider(fake *fakeCFN) *CloudFormationProvider {
	p := &CloudFormationProvider{clients: make(map[string]cfnAPI)}
	p.newClient = func(region string) cfnAPI {
		fake.regions = append(fake.regions, region)
		return fake
	}
	return p
}

func TestCloudFormationProvider_ListDeployedStacks(t *testing.T) {
	fake := &fakeCFN{}
	p := fakeProvider(fake)

	env := refactor.Environment{Account: "111111111111", Region: "us-east-1"}
	summaries, err := p.ListDeployedStacks(context.Background(), env)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "Stack1" {
		t.Errorf("Unexpected summaries: %+v", summaries)
	}
	if summaries[0].Status != "UPDATE_COMPLETE" {
		t.Errorf("Expected status to pass through, got %q", summaries[0].Status)
	}
	if len(fake.regions) != 1 || fake.regions[0] != "us-east-1" {
		t.Errorf("Expected a client for the environment's region, got %v", fake.regions)
	}
}

func TestCloudFormationProvider_ListDeployedStacks_Error(t *testing.T) {
	boom := errors.New("ExpiredToken")
	p := fakeProvider(&fakeCFN{listErr: boom})

	env := refactor.Environment{Account: "1", Region: "us-east-1"}
	if _, err := p.ListDeployedStacks(context.Background(), env); !errors.Is(err, boom) {
		t.Fatalf("Expected the provider error to propagate, got: %v", err)
	}
}

func TestCloudFormationProvider_GetDeployedTemplate(t *testing.T) {
	p := fakeProvider(&fakeCFN{template: stackTemplate})

	env := refactor.Environment{Account: "111111111111", Region: "us-east-1"}
	stack, err := p.GetDeployedTemplate(context.Background(), env, "Stack1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stack.Name != "Stack1" || stack.Environment != env {
		t.Errorf("Unexpected stack identity: %+v", stack)
	}
	if len(stack.Resources) != 1 || stack.Resources[0].Path != "Stack/Bucket/Resource" {
		t.Errorf("Unexpected resources: %+v", stack.Resources)
	}
}

func TestCloudFormationProvider_ClientReuse(t *testing.T) {
	fake := &fakeCFN{}
	p := fakeProvider(fake)

	env := refactor.Environment{Account: "1", Region: "us-east-1"}
	if _, err := p.ListDeployedStacks(context.Background(), env); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := p.ListDeployedStacks(context.Background(), env); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(fake.regions) != 1 {
		t.Errorf("Expected one client per region, got %d", len(fake.regions))
	}
}
