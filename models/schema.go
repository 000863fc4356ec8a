package models

// All lists every persisted model in dependency order for gorm's AutoMigrate.
func All() []any {
	return []any{
		&District{},
		&Area{},
		&Account{},
		&Franchise{},
		&Property{},
		&Enquiry{},
		&Requirement{},
		&Notification{},
		&Stream{},
		&AuditLog{},
	}
}

// PropertySearchFunctionDDL defines the immutable document builder behind idx_properties_search.
// array_to_string is only STABLE, so expression indexes need this wrapper.
const PropertySearchFunctionDDL = `CREATE OR REPLACE FUNCTION property_search_document(
    p_title TEXT, p_description TEXT, p_address TEXT, p_features TEXT[]
) RETURNS tsvector
LANGUAGE sql IMMUTABLE PARALLEL SAFE AS $$
    SELECT to_tsvector('simple',
        coalesce(p_title, '') || ' ' ||
        coalesce(p_description, '') || ' ' ||
        coalesce(p_address, '') || ' ' ||
        coalesce(array_to_string(p_features, ' '), ''))
$$`

// PropertySearchIndexDDL creates the full-text index used by property listing search.
const PropertySearchIndexDDL = `CREATE INDEX IF NOT EXISTS idx_properties_search ON properties
    USING GIN (property_search_document(title, description, address, features))`
