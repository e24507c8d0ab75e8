package postgres

// SQL migrations are compiled into the binary to keep deployment to a
// single file. Never edit an applied migration; append a new one.

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "admin users", migration001AdminUsers},
	{2, "admin sessions", migration002AdminSessions},
	{3, "leads", migration003Leads},
	{4, "lead activities", migration004Activities},
	{5, "attachments", migration005Attachments},
	{6, "quotes", migration006Quotes},
	{7, "customers", migration007Customers},
}

var migration001AdminUsers = `
CREATE TABLE IF NOT EXISTS admin_users (
    id UUID PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    full_name VARCHAR(120) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'admin' CHECK (role IN ('admin', 'superadmin')),
    capabilities TEXT[] NOT NULL DEFAULT '{}',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration002AdminSessions = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id UUID PRIMARY KEY,
    token_hash CHAR(64) UNIQUE NOT NULL,
    user_id UUID NOT NULL REFERENCES admin_users(id),
    email VARCHAR(255) NOT NULL,
    remember BOOLEAN NOT NULL DEFAULT FALSE,
    issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    ip VARCHAR(64),
    user_agent TEXT
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_expires_at ON admin_sessions(expires_at);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    email VARCHAR(255) NOT NULL,
    ip VARCHAR(64),
    success BOOLEAN NOT NULL DEFAULT FALSE,
    attempt_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_time ON admin_login_attempts(attempt_time);
`

var migration003Leads = `
CREATE TABLE IF NOT EXISTS leads (
    id UUID PRIMARY KEY,
    name VARCHAR(120) NOT NULL,
    email VARCHAR(255) NOT NULL,
    phone VARCHAR(40) NOT NULL DEFAULT '',
    company VARCHAR(160) NOT NULL DEFAULT '',
    website VARCHAR(255) NOT NULL DEFAULT '',
    service VARCHAR(60) NOT NULL DEFAULT '',
    budget VARCHAR(60) NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    postcode VARCHAR(10) NOT NULL DEFAULT '',
    city VARCHAR(120) NOT NULL DEFAULT '',
    kvk_number VARCHAR(8) NOT NULL DEFAULT '',
    source VARCHAR(20) NOT NULL DEFAULT 'form' CHECK (source IN ('form', 'manual')),
    status VARCHAR(20) NOT NULL DEFAULT 'new'
        CHECK (status IN ('new', 'contacted', 'qualified', 'converted', 'lost')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
`

var migration004Activities = `
CREATE TABLE IF NOT EXISTS lead_activities (
    id UUID PRIMARY KEY,
    lead_id UUID NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
    type VARCHAR(20) NOT NULL CHECK (type IN ('note', 'call', 'email', 'meeting', 'status_change')),
    description TEXT NOT NULL,
    created_by VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_lead_activities_lead_id ON lead_activities(lead_id, created_at DESC);
`

var migration005Attachments = `
CREATE TABLE IF NOT EXISTS lead_attachments (
    id UUID PRIMARY KEY,
    lead_id UUID NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
    file_name VARCHAR(255) NOT NULL,
    content_type VARCHAR(120) NOT NULL,
    size_bytes BIGINT NOT NULL,
    uploaded_by VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_lead_attachments_lead_id ON lead_attachments(lead_id);
CREATE TABLE IF NOT EXISTS attachment_blobs (
    attachment_id UUID PRIMARY KEY REFERENCES lead_attachments(id) ON DELETE CASCADE,
    data BYTEA NOT NULL
);
`

var migration006Quotes = `
CREATE TABLE IF NOT EXISTS quote_sequences (
    year INTEGER PRIMARY KEY,
    last_number INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS quotes (
    id UUID PRIMARY KEY,
    lead_id UUID NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
    quote_number VARCHAR(20) UNIQUE NOT NULL,
    title VARCHAR(160) NOT NULL,
    items JSONB NOT NULL DEFAULT '[]',
    vat_rate INTEGER NOT NULL DEFAULT 21,
    subtotal_cents BIGINT NOT NULL DEFAULT 0,
    vat_cents BIGINT NOT NULL DEFAULT 0,
    total_cents BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'draft'
        CHECK (status IN ('draft', 'sent', 'accepted', 'rejected')),
    valid_until DATE NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    created_by VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_quotes_lead_id ON quotes(lead_id);
CREATE INDEX IF NOT EXISTS idx_quotes_status ON quotes(status);
`

var migration007Customers = `
CREATE TABLE IF NOT EXISTS customers (
    id UUID PRIMARY KEY,
    lead_id UUID UNIQUE REFERENCES leads(id) ON DELETE SET NULL,
    company_name VARCHAR(160) NOT NULL,
    contact_name VARCHAR(120) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL DEFAULT '',
    phone VARCHAR(40) NOT NULL DEFAULT '',
    kvk_number VARCHAR(8) NOT NULL DEFAULT '',
    address VARCHAR(255) NOT NULL DEFAULT '',
    postcode VARCHAR(10) NOT NULL DEFAULT '',
    city VARCHAR(120) NOT NULL DEFAULT '',
    project_type VARCHAR(60) NOT NULL DEFAULT '',
    project_status VARCHAR(20) NOT NULL DEFAULT 'intake'
        CHECK (project_status IN ('intake', 'design', 'development', 'review', 'live', 'maintenance')),
    contract_value_cents BIGINT NOT NULL DEFAULT 0,
    monthly_fee_cents BIGINT NOT NULL DEFAULT 0,
    start_date DATE,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_customers_created_at ON customers(created_at DESC);
`
