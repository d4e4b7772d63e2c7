// Package warehouse implements the analytical warehouse access layer for the
// e-portfolio data API.
package warehouse

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations. They provision the
// canonical eport_gold layout for local development and seeding;
// deployments pointing at an externally managed schema never run them.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_profile_tables",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_taxonomy_tables",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_template_info",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROFILE TABLES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create student profile tables
-- Version: 001
-- Gold-layer tables are loaded by the seeder or an upstream ETL; rows are
-- denormalized reads, so there are no referential constraints, only join
-- key indexes.

CREATE SCHEMA IF NOT EXISTS eport_gold;

-- Core student row: identity and contact scalars
CREATE TABLE IF NOT EXISTS eport_gold.student (
    user_id TEXT PRIMARY KEY,
    first_name TEXT,
    last_name TEXT,
    email TEXT,
    phone TEXT,
    city TEXT,
    country TEXT,
    headline TEXT,
    summary TEXT
);

CREATE TABLE IF NOT EXISTS eport_gold.education (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    institution TEXT,
    degree TEXT,
    field_of_study TEXT,
    start_year INTEGER,
    end_year INTEGER,
    gpa NUMERIC(4,2)
);

CREATE INDEX IF NOT EXISTS idx_education_user_id ON eport_gold.education(user_id);

CREATE TABLE IF NOT EXISTS eport_gold.experience (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    company TEXT,
    title TEXT,
    location TEXT,
    start_year INTEGER,
    end_year INTEGER,
    description TEXT
);

CREATE INDEX IF NOT EXISTS idx_experience_user_id ON eport_gold.experience(user_id);

CREATE TABLE IF NOT EXISTS eport_gold.skills (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    skill_name TEXT,
    proficiency TEXT,
    category TEXT
);

CREATE INDEX IF NOT EXISTS idx_skills_user_id ON eport_gold.skills(user_id);

CREATE TABLE IF NOT EXISTS eport_gold.awards (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    award_name TEXT,
    issuer TEXT,
    year INTEGER,
    description TEXT
);

CREATE INDEX IF NOT EXISTS idx_awards_user_id ON eport_gold.awards(user_id);

CREATE TABLE IF NOT EXISTS eport_gold.extracurriculars (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    activity_name TEXT,
    organization TEXT,
    role TEXT,
    description TEXT
);

CREATE INDEX IF NOT EXISTS idx_extracurriculars_user_id ON eport_gold.extracurriculars(user_id);

CREATE TABLE IF NOT EXISTS eport_gold.publications (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT,
    venue TEXT,
    year INTEGER,
    url TEXT
);

CREATE INDEX IF NOT EXISTS idx_publications_user_id ON eport_gold.publications(user_id);

CREATE TABLE IF NOT EXISTS eport_gold.training (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    course_name TEXT,
    provider TEXT,
    year INTEGER
);

CREATE INDEX IF NOT EXISTS idx_training_user_id ON eport_gold.training(user_id);

-- "references" is a reserved word; always quoted
CREATE TABLE IF NOT EXISTS eport_gold."references" (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    referee_name TEXT,
    referee_title TEXT,
    company TEXT,
    email TEXT,
    relationship TEXT
);

CREATE INDEX IF NOT EXISTS idx_references_user_id ON eport_gold."references"(user_id);

CREATE TABLE IF NOT EXISTS eport_gold.additional_info (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    info_type TEXT,
    content TEXT
);

CREATE INDEX IF NOT EXISTS idx_additional_info_user_id ON eport_gold.additional_info(user_id);
`

const migration001Down = `
DROP TABLE IF EXISTS eport_gold.additional_info;
DROP TABLE IF EXISTS eport_gold."references";
DROP TABLE IF EXISTS eport_gold.training;
DROP TABLE IF EXISTS eport_gold.publications;
DROP TABLE IF EXISTS eport_gold.extracurriculars;
DROP TABLE IF EXISTS eport_gold.awards;
DROP TABLE IF EXISTS eport_gold.skills;
DROP TABLE IF EXISTS eport_gold.experience;
DROP TABLE IF EXISTS eport_gold.education;
DROP TABLE IF EXISTS eport_gold.student;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE TAXONOMY TABLES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create role and job description taxonomy tables
-- Version: 002

CREATE SCHEMA IF NOT EXISTS eport_gold;

CREATE TABLE IF NOT EXISTS eport_gold.role_taxonomy_roles (
    role_id TEXT PRIMARY KEY,
    role_title TEXT,
    role_description TEXT
);

CREATE TABLE IF NOT EXISTS eport_gold.role_taxonomy_required_skills (
    id BIGSERIAL PRIMARY KEY,
    role_id TEXT NOT NULL,
    skill_id TEXT,
    skill_name TEXT,
    proficiency_level TEXT,
    skill_rank INTEGER
);

CREATE INDEX IF NOT EXISTS idx_role_required_skills_role_id
    ON eport_gold.role_taxonomy_required_skills(role_id);

CREATE TABLE IF NOT EXISTS eport_gold.jd_taxonomy (
    jd_id TEXT PRIMARY KEY,
    job_title TEXT,
    company_name TEXT,
    company_industry TEXT,
    job_description TEXT
);

CREATE TABLE IF NOT EXISTS eport_gold.jd_taxonomy_required_skills (
    id BIGSERIAL PRIMARY KEY,
    jd_id TEXT NOT NULL,
    skill_name TEXT,
    proficiency_level TEXT
);

CREATE INDEX IF NOT EXISTS idx_jd_required_skills_jd_id
    ON eport_gold.jd_taxonomy_required_skills(jd_id);

CREATE TABLE IF NOT EXISTS eport_gold.jd_taxonomy_responsibilities (
    id BIGSERIAL PRIMARY KEY,
    jd_id TEXT NOT NULL,
    responsibility_text TEXT,
    responsibility_index INTEGER
);

CREATE INDEX IF NOT EXISTS idx_jd_responsibilities_jd_id
    ON eport_gold.jd_taxonomy_responsibilities(jd_id);
`

const migration002Down = `
DROP TABLE IF EXISTS eport_gold.jd_taxonomy_responsibilities;
DROP TABLE IF EXISTS eport_gold.jd_taxonomy_required_skills;
DROP TABLE IF EXISTS eport_gold.jd_taxonomy;
DROP TABLE IF EXISTS eport_gold.role_taxonomy_required_skills;
DROP TABLE IF EXISTS eport_gold.role_taxonomy_roles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE TEMPLATE INFO
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create rendering template metadata table
-- Version: 003

CREATE SCHEMA IF NOT EXISTS eport_gold;

CREATE TABLE IF NOT EXISTS eport_gold.template_info (
    template_id TEXT PRIMARY KEY,
    name TEXT,
    style TEXT,
    font_family TEXT,
    color_scheme TEXT,
    max_chars_per_section INTEGER,
    max_pages INTEGER
);
`

const migration003Down = `
DROP TABLE IF EXISTS eport_gold.template_info;
`
