// Package config provides configuration loading and validation for the bridge backend.
package config

import "errors"

var (
	// ErrInvalidMode indicates that the mode is invalid.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrMongoURLRequired indicates that mongodb.url must be specified.
	ErrMongoURLRequired = errors.New("mongodb.url must be specified")
	// ErrMongoDatabaseRequired indicates that mongodb.database must be specified.
	ErrMongoDatabaseRequired = errors.New("mongodb.database must be specified")
	// ErrUnsupportedSchema indicates an unknown prices.schema_version.
	ErrUnsupportedSchema = errors.New("unsupported prices.schema_version")
	// ErrNoOraclesEnabled indicates that no price oracle is enabled.
	ErrNoOraclesEnabled = errors.New("at least one price oracle must be enabled")
	// ErrOracleTypeRequired indicates that oracle type is required.
	ErrOracleTypeRequired = errors.New("oracle type is required")
	// ErrInvalidMatchMode indicates that prices.match_mode is invalid.
	ErrInvalidMatchMode = errors.New("invalid prices.match_mode")
	// ErrInvalidTokenLimit indicates a non-positive token limit.
	ErrInvalidTokenLimit = errors.New("prices.token_limit must be > 0")
	// ErrNoGRPCEndpoints indicates that a component needing the chain has no endpoints.
	ErrNoGRPCEndpoints = errors.New("at least one chain.grpc_endpoints entry must be specified")
	// ErrInvalidInterval indicates a non-positive schedule interval.
	ErrInvalidInterval = errors.New("interval must be > 0")
	// ErrFactoryRequired indicates that the pairs job lacks its factory contract.
	ErrFactoryRequired = errors.New("jobs.pairs.factory_contract must be specified")
	// ErrPairCodeIDRequired indicates that the pairs job lacks its code id.
	ErrPairCodeIDRequired = errors.New("jobs.pairs.pair_code_id must be specified")
	// ErrStatisticsTokenRequired indicates that the statistics job lacks its token.
	ErrStatisticsTokenRequired = errors.New("jobs.statistics.token_name and token_symbol must be specified")
	// ErrTLSConfigIncomplete indicates that TLS config is incomplete.
	ErrTLSConfigIncomplete = errors.New("TLS cert and key must be specified when TLS is enabled")
	// ErrTLSCertNotFound indicates that the TLS cert file was not found.
	ErrTLSCertNotFound = errors.New("TLS cert file not found")
	// ErrTLSKeyNotFound indicates that the TLS key file was not found.
	ErrTLSKeyNotFound = errors.New("TLS key file not found")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)
