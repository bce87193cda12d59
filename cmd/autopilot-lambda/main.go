package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/container"
)

var chiLambda *chiadapter.ChiLambda

// The operator API only; timers armed through /refresh live as long as the
// execution environment stays warm.
func init() {
	config.Init()
	ctx := context.Background()

	settings, err := config.Load("")
	if err != nil {
		config.Logger.WithError(err).Fatal("Failed to load configuration")
	}
	c, err := container.New(ctx, settings, container.ModeDaemon)
	if err != nil {
		config.Logger.WithError(err).Fatal("Failed to build application")
	}
	chiLambda = chiadapter.New(c.Router)
}

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return chiLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
