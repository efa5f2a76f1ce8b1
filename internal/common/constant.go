// Package common contains shared constants and sentinel errors used across
// the codec, the repair engine and the repositories.
package common

// BaseFolderUUID is the well-known folder id of the root folder. A password
// revision pointing to it sits at the top level of the vault.
const BaseFolderUUID = "00000000-0000-0000-0000-000000000000"

// Configuration keys stored through the application configuration store.
const (
	// MigrationCustomFieldsKey records that custom fields were converted to
	// the list schema. MigrationCustomFieldsDone is the value written once a
	// full repair pass over password revisions completed.
	MigrationCustomFieldsKey  = "migration/customFields"
	MigrationCustomFieldsDone = "2019.4.2"
)
