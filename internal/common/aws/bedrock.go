// internal/common/aws/bedrock.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockRuntimeClient wraps the Bedrock runtime client used for model
// invocation. Credentials come from the default AWS chain.
type BedrockRuntimeClient struct {
	client *bedrockruntime.Client
}

func NewBedrockRuntimeClient(ctx context.Context, region, endpointURL string) (*BedrockRuntimeClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
	return &BedrockRuntimeClient{client: client}, nil
}

func (c *BedrockRuntimeClient) InvokeModel(ctx context.Context, input *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	return c.client.InvokeModel(ctx, input, optFns...)
}
