// Package telemetry provides structured logging and event publishing for the
// refactor planning engine.
//
// Logging is built on zerolog and configured through LoggingConfig. Events
// flow through an EventPublisher: the engine publishes one informational
// event per environment before its comparison, one result event per
// environment, and one terminal event per run. Subscribers (such as the CLI
// renderer) receive events in publication order when the publisher runs
// synchronously, which is how planning runs use it so that report order stays
// deterministic.
package telemetry
