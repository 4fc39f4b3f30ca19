package fakebackend

import "github.com/MrEthical07/examAuth/permission"

// DemoUser is a user created by Seed.
type DemoUser struct {
	UserID   string
	Password string
	FullName string
	Role     permission.Role
}

// DemoUsers is one user per role.
var DemoUsers = []DemoUser{
	{UserID: "owner", Password: "owner-pass", FullName: "Platform Owner", Role: permission.RoleOwner},
	{UserID: "admin", Password: "admin-pass", FullName: "Site Admin", Role: permission.RoleAdmin},
	{UserID: "teacher", Password: "teacher-pass", FullName: "Course Teacher", Role: permission.RoleTeacher},
	{UserID: "student", Password: "student-pass", FullName: "Enrolled Student", Role: permission.RoleStudent},
}

// Seed registers DemoUsers.
func (b *Backend) Seed() {
	for _, u := range DemoUsers {
		b.AddUser(u.UserID, u.Password, u.FullName, u.UserID+"@examsphere.test", u.Role)
	}
}
