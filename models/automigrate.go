package models

// AllTables returns a slice of all tables in the database.
func AllTables() []interface{} {
	return []interface{}{
		&Account{},
		&Calendar{},
		&DeliveryRequest{},
		&Event{},
		&FollowRelationship{},
		&InboxMessage{},
		&OutboxMessage{},
		&RemoteActor{},
		&SharedEvent{},
		&Token{},
	}
}
