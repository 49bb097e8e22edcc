package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalVariants(t *testing.T) {
	admin := UserPrincipal(User{ID: "u1", Name: "Admin", Email: "admin@academia.com", Role: RoleAdmin, Active: true})
	assert.True(t, admin.IsUser())
	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.IsInstructor())
	assert.Equal(t, "admin@academia.com", admin.Email())
	assert.Equal(t, "admin", admin.Info().Role)

	control := UserPrincipal(User{ID: "u2", Role: RoleControl})
	assert.False(t, control.IsAdmin())

	hash := "x"
	coach := InstructorPrincipal(Instructor{ID: "i1", Name: "Carla", Email: "carla@academia.com", Specialization: "Swimming", PasswordHash: &hash})
	assert.True(t, coach.IsInstructor())
	assert.False(t, coach.IsAdmin())
	assert.Equal(t, "Carla", coach.Name())
	info := coach.Info()
	assert.Equal(t, PrincipalInstructor, info.Kind)
	assert.Equal(t, "Swimming", info.Specialization)
}

func TestInstructorCanLogin(t *testing.T) {
	empty := ""
	hash := "$2a$10$abc"
	assert.False(t, Instructor{}.CanLogin())
	assert.False(t, Instructor{PasswordHash: &empty}.CanLogin())
	assert.True(t, Instructor{PasswordHash: &hash}.CanLogin())
	assert.True(t, NewInstructorView(Instructor{PasswordHash: &hash}).HasLogin)
}
