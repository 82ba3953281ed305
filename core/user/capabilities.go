package user

// Feature keys used to gate handlers and navigation.
type Feature string

const (
	FeatDashboard          Feature = "dashboard"
	FeatTakeAttendance     Feature = "take_attendance"
	FeatViewReports        Feature = "view_reports"
	FeatManageSchoolYears  Feature = "manage_schoolyears"
	FeatEnrollStudents     Feature = "enroll_students"
	FeatAssignSection      Feature = "assign_section"
	FeatManageStudents     Feature = "manage_students"
	FeatViewStudentHistory Feature = "view_student_history"
	FeatManageReports      Feature = "manage_reports"
	FeatManageCalendar     Feature = "manage_calendar"
)

var AllFeatures = []Feature{
	FeatDashboard,
	FeatTakeAttendance,
	FeatViewReports,
	FeatManageSchoolYears,
	FeatEnrollStudents,
	FeatAssignSection,
	FeatManageStudents,
	FeatViewStudentHistory,
	FeatManageReports,
	FeatManageCalendar,
}

// FeatureAccess is a per-user capability override; it takes precedence over roles.
type FeatureAccess struct {
	UserID  string  `json:"user_id"`
	Feature Feature `json:"feature"`
	Allow   bool    `json:"allow"`
}

var (
	adminFeatures = featureSet(AllFeatures...)

	adviserFeatures = featureSet(
		FeatDashboard,
		FeatTakeAttendance,
		FeatViewReports,
		FeatManageSchoolYears,
		FeatEnrollStudents,
		FeatAssignSection,
		FeatViewStudentHistory,
		FeatManageCalendar,
	)

	officerFeatures = featureSet(
		FeatDashboard,
		FeatTakeAttendance,
		FeatViewStudentHistory,
	)

	defaultFeatures = featureSet(FeatDashboard)
)

func featureSet(feats ...Feature) map[Feature]bool {
	set := make(map[Feature]bool, len(feats))
	for _, f := range feats {
		set[f] = true
	}
	return set
}

// capabilityRule decides feature access for users it applies to.
// Rules are evaluated in declaration order; the first applicable rule wins.
type capabilityRule struct {
	name    string
	applies func(usr User, overrides []FeatureAccess) bool
	allows  func(usr User, overrides []FeatureAccess, feat Feature) bool
}

// roleRules resolve access from group roles alone. They are evaluated after
// the superuser and override rules, and double as the override rule's
// fallthrough for features the override rows do not name.
var roleRules = []capabilityRule{
	{
		name:    "admin role",
		applies: func(usr User, _ []FeatureAccess) bool { return usr.IsAdmin() },
		allows:  func(_ User, _ []FeatureAccess, feat Feature) bool { return adminFeatures[feat] },
	},
	{
		name:    "adviser role",
		applies: func(usr User, _ []FeatureAccess) bool { return usr.IsAdviser() },
		allows:  func(_ User, _ []FeatureAccess, feat Feature) bool { return adviserFeatures[feat] },
	},
	{
		name:    "officer role",
		applies: func(usr User, _ []FeatureAccess) bool { return usr.IsOfficer() },
		allows:  func(_ User, _ []FeatureAccess, feat Feature) bool { return officerFeatures[feat] },
	},
	{
		name:    "default",
		applies: func(User, []FeatureAccess) bool { return true },
		allows:  func(_ User, _ []FeatureAccess, feat Feature) bool { return defaultFeatures[feat] },
	},
}

var capabilityRules = append([]capabilityRule{
	{
		name:    "superuser",
		applies: func(usr User, _ []FeatureAccess) bool { return usr.IsSuperuser },
		allows:  func(User, []FeatureAccess, Feature) bool { return true },
	},
	{
		name:    "per-user override",
		applies: func(usr User, overrides []FeatureAccess) bool { return len(overrides) > 0 },
		allows: func(usr User, overrides []FeatureAccess, feat Feature) bool {
			for _, fa := range overrides {
				if fa.Feature == feat {
					return fa.Allow
				}
			}
			return resolveRoles(usr, feat)
		},
	},
}, roleRules...)

// resolveRoles applies the role rules only, skipping superuser and overrides.
func resolveRoles(usr User, feat Feature) bool {
	for _, rule := range roleRules {
		if rule.applies(usr, nil) {
			return rule.allows(usr, nil, feat)
		}
	}
	return defaultFeatures[feat]
}

// HasFeature resolves one feature for a user given their override rows.
func HasFeature(usr User, overrides []FeatureAccess, feat Feature) bool {
	if usr.IsActive != nil && !*usr.IsActive {
		return false
	}
	for _, rule := range capabilityRules {
		if rule.applies(usr, overrides) {
			return rule.allows(usr, overrides, feat)
		}
	}
	return false
}

// Capabilities resolves the full feature set for a user once per request;
// handlers receive the resolved map instead of querying access ad hoc.
func Capabilities(usr User, overrides []FeatureAccess) map[Feature]bool {
	caps := make(map[Feature]bool, len(AllFeatures))
	for _, feat := range AllFeatures {
		caps[feat] = HasFeature(usr, overrides, feat)
	}
	return caps
}
