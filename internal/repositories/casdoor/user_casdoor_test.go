package casdoor

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/assessment-engine/internal/cache"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type fakeDirectory struct {
	users map[string]*casdoorsdk.User
	calls int
}

func (f *fakeDirectory) GetUserByUserId(userId string) (*casdoorsdk.User, error) {
	f.calls++
	return f.users[userId], nil
}

func (f *fakeDirectory) GetPaginationUsers(p int, pageSize int, queryMap map[string]string) ([]*casdoorsdk.User, int, error) {
	out := make([]*casdoorsdk.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func newTestRepo(t *testing.T) (*UserCasdoor, *fakeDirectory) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	dir := &fakeDirectory{users: map[string]*casdoorsdk.User{
		"u1": {Id: "u1", DisplayName: "Ada", Email: "ada@example.com"},
		"u2": {Id: "u2", DisplayName: "Bob", Roles: []*casdoorsdk.Role{{Name: "Teacher"}}},
	}}
	return newUserCasdoor(dir, cache.NewCacheHelper(client, cache.UserCacheConfig.Prefix)), dir
}

func TestGetByIDCachesResult(t *testing.T) {
	repo, dir := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		user, err := repo.GetByID(ctx, "u1")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if user.FullName != "Ada" {
			t.Fatalf("FullName = %q", user.FullName)
		}
	}

	if dir.calls != 1 {
		t.Errorf("directory calls = %d, want 1", dir.calls)
	}
}

func TestGetByIDUnknown(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	exists, err := repo.ExistsByID(context.Background(), "missing")
	if err != nil || exists {
		t.Fatalf("ExistsByID = %v, %v", exists, err)
	}
}

func TestGetByIDsOmitsUnknown(t *testing.T) {
	repo, _ := newTestRepo(t)

	users, err := repo.GetByIDs(context.Background(), []string{"u2", "nope", "u1", "u2"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(users) != 2 || users[0].ID != "u2" || users[1].ID != "u1" {
		t.Fatalf("unexpected users: %+v", users)
	}
	if users[0].Role != models.RoleTeacher {
		t.Errorf("role = %s, want teacher", users[0].Role)
	}
}

func TestPrimaryRole(t *testing.T) {
	tests := []struct {
		name string
		user *casdoorsdk.User
		want models.UserRole
	}{
		{"no roles", &casdoorsdk.User{}, models.RoleStudent},
		{"admin flag", &casdoorsdk.User{IsAdmin: true}, models.RoleAdmin},
		{"admin role wins", &casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "proctor"}, {Name: "administrator"}}}, models.RoleAdmin},
		{"first mapped", &casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "proctor"}, {Name: "teacher"}}}, models.RoleProctor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := primaryRole(tt.user); got != tt.want {
				t.Errorf("primaryRole() = %s, want %s", got, tt.want)
			}
		})
	}
}
