package passauth

// Schema contains sql commands to setup the database to work for the passauth app.
const Schema = `
CREATE TABLE IF NOT EXISTS auth_user (
	id VARCHAR(26) PRIMARY KEY,
	email VARCHAR(255) UNIQUE NULL,
	display_name VARCHAR(255) NOT NULL DEFAULT '',
	is_verified BOOLEAN DEFAULT false,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE TABLE IF NOT EXISTS passkey_challenge (
	request_id VARCHAR(64) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES auth_user(id) NULL,
	email VARCHAR(255) NULL,
	challenge_type VARCHAR(20) NOT NULL,
	challenge BYTEA NOT NULL,
	options JSONB NOT NULL,
	metadata JSONB NULL,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	consumed_at TIMESTAMP WITH TIME ZONE NULL,
	consumed_reason VARCHAR(20) NULL,
	consumed_ip VARCHAR(45) NULL,
	consumed_user_agent VARCHAR(255) NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE TABLE IF NOT EXISTS passkey_credential (
	id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES auth_user(id) NOT NULL,
	credential_id BYTEA UNIQUE NOT NULL,
	public_key BYTEA NOT NULL,
	sign_count BIGINT DEFAULT 0,
	name VARCHAR(64) NOT NULL DEFAULT '',
	device_type VARCHAR(20) NOT NULL DEFAULT '',
	is_backed_up BOOLEAN DEFAULT false,
	transports TEXT[] NOT NULL DEFAULT '{}',
	metadata JSONB NULL,
	last_used_at TIMESTAMP WITH TIME ZONE NULL,
	revoked_at TIMESTAMP WITH TIME ZONE NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE INDEX IF NOT EXISTS passkey_credential_user_idx ON passkey_credential (user_id);
CREATE TABLE IF NOT EXISTS audit_event (
	id VARCHAR(26) PRIMARY KEY,
	entity_type VARCHAR(30) NOT NULL,
	entity_id VARCHAR(64) NOT NULL,
	event_type VARCHAR(60) NOT NULL,
	payload JSONB NULL,
	performed_by VARCHAR(26) NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
`
