package models

// All returns every model migrated at startup.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Salarie{},
		&Session{},
		&Document{},
		&Notification{},
		&ScanLock{},
		&MarchePublic{},
		&LegacyNotification{},
		&DossierMarche{},
		&DocumentDossier{},
	}
}
