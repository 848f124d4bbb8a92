package model

// Backends groups the storage backends handed to the API layer.
type Backends struct {
	Users  UsersStore
	Hives  HivesStore
	Queens QueensStore
	Visits VisitsStore
}
