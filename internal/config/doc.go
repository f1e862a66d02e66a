// Package config loads flock's client configuration.
//
// # Overview
//
// flock needs to know where the social backend lives, how long to wait for
// it, how many posts to request per page and where to keep local state (the
// access token and the client log). All of it comes from an optional TOML
// file plus FLOCK_* environment overrides.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. Start from Default()
//  2. Overlay the TOML file (explicit path, else ~/.config/flock/config.toml)
//  3. Load a .env file from the working directory, if present
//  4. Overlay FLOCK_* environment variables
//  5. Validate the result
//
// A missing config file is NOT an error; flock works out of the box against a
// backend on 127.0.0.1:3000.
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:3000"
//	geocode_url = "https://nominatim.openstreetmap.org"
//	request_timeout = "10s"
//	upload_timeout = "20s"
//	feed_page_size = 20
//	refresh_interval = "30s"   # "0s" disables auto-refresh
//	state_dir = "~/.local/state/flock"
//
//	[upload]
//	backend = "api"            # or "s3" to put images straight into a bucket
//	bucket = "flock-media"
//	region = "us-east-1"
//	endpoint = "localhost:9000" # MinIO; empty for AWS
//	access_key_id = ""
//	secret_access_key = ""
//	use_ssl = true
//	public_url = ""            # optional CDN prefix for object URLs
//
// # Environment Overrides
//
//   - FLOCK_API_URL, FLOCK_GEOCODE_URL, FLOCK_STATE_DIR
//   - FLOCK_REQUEST_TIMEOUT, FLOCK_UPLOAD_TIMEOUT, FLOCK_REFRESH_INTERVAL
//   - FLOCK_FEED_PAGE_SIZE
//   - FLOCK_UPLOAD_BACKEND and FLOCK_S3_* for the [upload] table
//
// Tilde expansion is applied to the config path and state_dir.
package config
