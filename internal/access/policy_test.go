package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

func TestEvaluate(t *testing.T) {
	student := Caller{UserID: "u1", Role: models.RoleStudent}
	instructor := Caller{UserID: "u2", Role: models.RoleInstructor}
	admin := Caller{UserID: "u3", Role: models.RoleAdmin}

	tests := []struct {
		name      string
		caller    Caller
		req       Requirement
		hasActive bool
		want      Decision
	}{
		{name: "authenticated only", caller: student, req: Authenticated, want: Allow},
		{name: "admin route as admin", caller: admin, req: RequireRole(models.RoleAdmin), want: Allow},
		{name: "admin route as student", caller: student, req: RequireRole(models.RoleAdmin), want: DenyRole},
		{name: "admin route as instructor", caller: instructor, req: RequireRole(models.RoleAdmin), want: DenyRole},
		{name: "instructor role is exact, admin denied", caller: admin, req: RequireRole(models.RoleInstructor), want: DenyRole},
		{name: "student subscription present", caller: student, req: RequireSubscription(models.SubscriptionStudent), hasActive: true, want: Allow},
		{name: "student subscription missing", caller: student, req: RequireSubscription(models.SubscriptionStudent), want: DenySubscription},
		{name: "instructor subscription missing", caller: instructor, req: RequireSubscription(models.SubscriptionInstructor), want: DenySubscription},
		{name: "admin bypasses student subscription", caller: admin, req: RequireSubscription(models.SubscriptionStudent), want: Allow},
		{name: "admin bypasses instructor subscription", caller: admin, req: RequireSubscription(models.SubscriptionInstructor), want: Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.caller, tt.req, tt.hasActive))
		})
	}
}

func TestNeedsSubscriptionLookup(t *testing.T) {
	assert.False(t, NeedsSubscriptionLookup(Caller{Role: models.RoleStudent}, Authenticated))
	assert.False(t, NeedsSubscriptionLookup(Caller{Role: models.RoleStudent}, RequireRole(models.RoleAdmin)))
	assert.True(t, NeedsSubscriptionLookup(Caller{Role: models.RoleStudent}, RequireSubscription(models.SubscriptionStudent)))
	assert.True(t, NeedsSubscriptionLookup(Caller{Role: models.RoleInstructor}, RequireSubscription(models.SubscriptionInstructor)))
	assert.False(t, NeedsSubscriptionLookup(Caller{Role: models.RoleAdmin}, RequireSubscription(models.SubscriptionInstructor)))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "insufficient role", DenyRole.String())
	assert.Equal(t, "active subscription required", DenySubscription.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
