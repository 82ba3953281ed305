package user

import "testing"

func TestHasFeature(t *testing.T) {
	boolp := func(v bool) *bool { return &v }
	mkUser := func(super bool, roles ...string) User {
		return User{ID: "u1", IsActive: boolp(true), IsSuperuser: super, Roles: roles}
	}

	tests := []struct {
		name      string
		usr       User
		overrides []FeatureAccess
		feat      Feature
		want      bool
	}{
		{name: "superuser gets everything", usr: mkUser(true), feat: FeatManageSchoolYears, want: true},
		{
			name: "superuser beats a deny override",
			usr:  mkUser(true),
			overrides: []FeatureAccess{
				{UserID: "u1", Feature: FeatManageSchoolYears, Allow: false},
			},
			feat: FeatManageSchoolYears,
			want: true,
		},
		{
			name: "allow override grants a feature the role lacks",
			usr:  mkUser(false, RoleOfficer),
			overrides: []FeatureAccess{
				{UserID: "u1", Feature: FeatViewReports, Allow: true},
			},
			feat: FeatViewReports,
			want: true,
		},
		{
			name: "deny override revokes a role feature",
			usr:  mkUser(false, RoleAdviser),
			overrides: []FeatureAccess{
				{UserID: "u1", Feature: FeatTakeAttendance, Allow: false},
			},
			feat: FeatTakeAttendance,
			want: false,
		},
		{
			name: "override falls through to roles for unnamed features",
			usr:  mkUser(false, RoleAdviser),
			overrides: []FeatureAccess{
				{UserID: "u1", Feature: FeatManageStudents, Allow: true},
			},
			feat: FeatEnrollStudents,
			want: true,
		},
		{name: "admin manages students", usr: mkUser(false, RoleAdmin), feat: FeatManageStudents, want: true},
		{name: "adviser cannot manage students", usr: mkUser(false, RoleAdviser), feat: FeatManageStudents, want: false},
		{name: "adviser enrolls students", usr: mkUser(false, RoleAdviser), feat: FeatEnrollStudents, want: true},
		{name: "officer takes attendance", usr: mkUser(false, RoleOfficer), feat: FeatTakeAttendance, want: true},
		{name: "officer cannot view reports", usr: mkUser(false, RoleOfficer), feat: FeatViewReports, want: false},
		{name: "roleless user gets the dashboard", usr: mkUser(false), feat: FeatDashboard, want: true},
		{name: "roleless user gets nothing else", usr: mkUser(false), feat: FeatTakeAttendance, want: false},
		{
			name: "inactive user gets nothing",
			usr:  User{ID: "u1", IsActive: boolp(false), IsSuperuser: true},
			feat: FeatDashboard,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasFeature(tt.usr, tt.overrides, tt.feat); got != tt.want {
				t.Errorf("HasFeature(%s) = %v, want %v", tt.feat, got, tt.want)
			}
		})
	}
}

func TestCapabilityRuleOrder(t *testing.T) {
	want := []string{"superuser", "per-user override", "admin role", "adviser role", "officer role", "default"}
	if len(capabilityRules) != len(want) {
		t.Fatalf("capabilityRules has %d rules, want %d", len(capabilityRules), len(want))
	}
	for i, rule := range capabilityRules {
		if rule.name != want[i] {
			t.Errorf("capabilityRules[%d] = %q, want %q", i, rule.name, want[i])
		}
	}
}

func TestCapabilities(t *testing.T) {
	active := true
	usr := User{ID: "u1", IsActive: &active, Roles: []string{RoleOfficer}}

	caps := Capabilities(usr, nil)
	if len(caps) != len(AllFeatures) {
		t.Fatalf("Capabilities() has %d entries, want %d", len(caps), len(AllFeatures))
	}
	for _, feat := range []Feature{FeatDashboard, FeatTakeAttendance, FeatViewStudentHistory} {
		if !caps[feat] {
			t.Errorf("caps[%s] = false, want true", feat)
		}
	}
	if caps[FeatManageSchoolYears] {
		t.Error("caps[manage_schoolyears] = true, want false for an officer")
	}
}
