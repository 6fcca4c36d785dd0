// Package config loads runtime configuration for the jobportal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: JOBPORTAL_API_URL, JOBPORTAL_DATABASE_DSN,
//     JOBPORTAL_REQUEST_TIMEOUT, JOBPORTAL_ONLINE_CHECK_INTERVAL,
//     JOBPORTAL_OTP_DURATION, JOBPORTAL_MOCK_OTP, JOBPORTAL_LOG_LEVEL.
//     A .env file in the working directory is loaded first when present.
//  3. Optional JSON or YAML file selected via -c or -config.
//  4. Command-line flags, which override everything else.
//
// # File schema
//
// Durations accept either strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://jobs.example.com/api",
//	  "request_timeout": "10s",
//	  "otp_duration": "15m",
//	  "mock_otp": false
//	}
package config
