package user_test

import (
	"testing"

	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/user"
)

func TestUser_SetNames(t *testing.T) {
	tests := []struct {
		name, title         string
		wantDisplay, wantZh string
	}{
		{"Li Ming", "Professor", "Professor Li", "Li教授"},
		{"Chan Tai Man", "Lecturer", "Lecturer Chan", "Chan教授"},
		{"Li Ming", "", "Li Ming", "Li Ming"},
	}

	for _, tc := range tests {
		usr := user.User{Name: tc.name, Title: tc.title}
		usr.SetNames()
		if usr.DisplayName != tc.wantDisplay || usr.ChineseName != tc.wantZh {
			t.Errorf("failed! SetNames(%q, %q) = (%q, %q); want (%q, %q)",
				tc.name, tc.title, usr.DisplayName, usr.ChineseName, tc.wantDisplay, tc.wantZh)
		}
	}
}

func TestUser_GreetingName(t *testing.T) {
	usr := user.User{Name: "Li Ming", Title: "Professor"}
	usr.SetNames()

	tests := []struct {
		lang i18n.Code
		want string
	}{
		{i18n.English, "Professor Li"},
		{i18n.SimplifiedChinese, "Li教授"},
		{i18n.TraditionalChinese, "Li教授"},
	}
	for _, tc := range tests {
		if got := usr.GreetingName(tc.lang); got != tc.want {
			t.Errorf("failed! GreetingName(%s) = %q; want %q", tc.lang, got, tc.want)
		}
	}

	bare := user.User{Name: "Li Ming"}
	if got := bare.GreetingName(i18n.SimplifiedChinese); got != "Li Ming" {
		t.Errorf("failed! GreetingName() without derived names = %q; want Li Ming", got)
	}
}

func TestUser_Password(t *testing.T) {
	var usr user.User
	if err := usr.SetPassword("abcdefgh"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if string(usr.PasswordHash) == "abcdefgh" {
		t.Errorf("failed! password stored in clear")
	}
	if err := usr.CheckPassword("abcdefgh"); err != nil {
		t.Errorf("failed! CheckPassword(right) = %v", err)
	}
	if err := usr.CheckPassword("abcdefgi"); err == nil {
		t.Errorf("failed! CheckPassword(wrong) succeeded")
	}
}

func TestNewUser_Clean(t *testing.T) {
	nu := user.NewUser{Name: "  Li Ming ", Email: " LI@CityU.edu.HK ", Department: " cs ", Title: " Professor"}
	nu.Clean()
	if nu.Name != "Li Ming" || nu.Email != "li@cityu.edu.hk" || nu.Department != "cs" || nu.Title != "Professor" {
		t.Errorf("failed! Clean() = %+v", nu)
	}
}
