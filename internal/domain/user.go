package domain

// User is an assignment candidate supplied by the upstream user service.
type User struct {
	ID          int64
	DisplayName string
	Email       string
}

// Sector is a transfer-target organizational sector.
type Sector struct {
	ID   int64
	Name string
}

// Viewer is the identity acting on the table. It is always passed
// explicitly into the engine; the engine never reads ambient session
// state.
type Viewer struct {
	UserID      int64
	DisplayName string
	Email       string
	RoleID      int64
}
