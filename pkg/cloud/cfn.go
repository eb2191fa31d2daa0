// Package cloud implements the refactor engine's external collaborators: the
// CloudFormation provider client and the cloud assembly reader.
package cloud

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
	"github.com/vivian12300/aws-cdk-cli/pkg/template"
)

// activeStackStatuses are the lifecycle states in which a stack's template is
// deployed and comparable. Deleted and in-review stacks are skipped.
var activeStackStatuses = []types.StackStatus{
	types.StackStatusCreateComplete,
	types.StackStatusUpdateComplete,
	types.StackStatusUpdateRollbackComplete,
	types.StackStatusImportComplete,
	types.StackStatusImportRollbackComplete,
	types.StackStatusRollbackComplete,
}

// cfnAPI is the slice of the CloudFormation API the provider uses.
type cfnAPI interface {
	GetTemplate(ctx context.Context, params *cloudformation.GetTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.GetTemplateOutput, error)
	cloudformation.ListStacksAPIClient
}

// CloudFormationProvider implements refactor.StackProvider against the
// CloudFormation API. It performs no retries of its own beyond the SDK's
// defaults and never masks provider failures.
type CloudFormationProvider struct {
	base aws.Config

	mu      sync.Mutex
	clients map[string]cfnAPI

	// newClient builds a regional API client; replaced in tests.
	newClient func(region string) cfnAPI
}

// NewCloudFormationProvider creates a provider using the default credential
// chain. The region of each call follows the environment being compared, not
// the ambient configuration.
func NewCloudFormationProvider(ctx context.Context) (*CloudFormationProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	p := &CloudFormationProvider{base: cfg, clients: make(map[string]cfnAPI)}
	p.newClient = func(region string) cfnAPI {
		return cloudformation.NewFromConfig(p.base, func(o *cloudformation.Options) {
			o.Region = region
		})
	}
	return p, nil
}

func (p *CloudFormationProvider) client(region string) cfnAPI {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clients[region]
	if !ok {
		c = p.newClient(region)
		p.clients[region] = c
	}
	return c
}

// ListDeployedStacks returns summaries of the active stacks in the given
// environment.
func (p *CloudFormationProvider) ListDeployedStacks(ctx context.Context, env refactor.Environment) ([]refactor.StackSummary, error) {
	client := p.client(env.Region)
	paginator := cloudformation.NewListStacksPaginator(client, &cloudformation.ListStacksInput{
		StackStatusFilter: activeStackStatuses,
	})

	var summaries []refactor.StackSummary
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing stacks in %s: %w", env, err)
		}
		for _, s := range page.StackSummaries {
			summaries = append(summaries, refactor.StackSummary{
				Name:   aws.ToString(s.StackName),
				ID:     aws.ToString(s.StackId),
				Status: string(s.StackStatus),
			})
		}
	}
	return summaries, nil
}

// GetDeployedTemplate fetches the named stack's current template and
// materializes it into the comparison model.
func (p *CloudFormationProvider) GetDeployedTemplate(ctx context.Context, env refactor.Environment, stackName string) (refactor.Stack, error) {
	client := p.client(env.Region)
	out, err := client.GetTemplate(ctx, &cloudformation.GetTemplateInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return refactor.Stack{}, fmt.Errorf("fetching template for stack %q in %s: %w", stackName, env, err)
	}

	doc, err := template.Parse([]byte(aws.ToString(out.TemplateBody)))
	if err != nil {
		return refactor.Stack{}, fmt.Errorf("stack %q: %w", stackName, err)
	}
	return template.Build(stackName, env, doc), nil
}
