package user

import (
	"testing"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "12345678", want: pwdNotAllNumTag},
		{name: "no upper", pwd: "abcdefgh1!", want: pwdComplexityTag},
		{name: "no special", pwd: "Abcdefgh12", want: pwdComplexityTag},
		{name: "similar to name", pwd: "Amina.Benali1", attrs: []string{"Amina Benali"}, want: pwdAttrSimTag},
		{name: "similar to email", pwd: "Khadija.99", attrs: []string{"", "khadija99@test.test"}, want: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd", want: pwdNoCommonTag},
		{name: "common, any case", pwd: "Password1!", want: pwdNoCommonTag},
		{name: "arabic letters", pwd: "مدرسة2024!Aa", want: ""},
		{name: "valid", pwd: "Zk7#qLm2vR", attrs: []string{"Amina Benali", "amina@test.test"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkPassword(tt.pwd, tt.attrs...); got != tt.want {
				t.Errorf("failed! checkPassword(%q) = %q; expected %q", tt.pwd, got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleStudent, RoleTeacher, RoleAdmin, " Teacher "} {
		if !role.Valid() {
			t.Errorf("failed! %q should be valid", role)
		}
	}
	for _, role := range []Role{"", "principal", "students"} {
		if role.Valid() {
			t.Errorf("failed! %q should not be valid", role)
		}
	}
}

func TestNewStudent_Clean(t *testing.T) {
	ns := NewStudent{
		Email:    "  Amina@Test.TEST ",
		FullName: " Amina   Benali ",
		Subjects: []string{" quran ", "", "arabic"},
	}
	ns.Clean()
	if ns.Email != "amina@test.test" {
		t.Errorf("failed! email = %q", ns.Email)
	}
	if ns.Role != RoleStudent {
		t.Errorf("failed! role = %q; expected student", ns.Role)
	}
	if len(ns.Subjects) != 2 || ns.Subjects[0] != "quran" || ns.Subjects[1] != "arabic" {
		t.Errorf("failed! subjects = %v", ns.Subjects)
	}

	ns = NewStudent{Role: "Principal"}
	ns.Clean()
	if ns.Role != "principal" {
		t.Errorf("failed! an unknown role must be kept for validation; got %q", ns.Role)
	}
}
