// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

// SeedData describes the bootstrap dataset: permissions, roles granting
// them, and accounts holding the roles. Roles reference permissions by
// code and accounts reference roles by name.
type SeedData struct {
	Permissions []Permission
	Roles       []SeedRole
	Accounts    []SeedAccount
}

// SeedRole is a role to seed with the permission codes it grants.
type SeedRole struct {
	Name            string
	PermissionCodes []string
}

// SeedAccount is an account to seed. PasswordDigest is the already-hashed
// password.
type SeedAccount struct {
	Username       string
	PasswordDigest string
	NickName       string
	Email          string
	PhoneNumber    string
	IsAdmin        bool
	RoleNames      []string
}

// DefaultSeedData returns the initial dataset: two demo permissions, an
// administrator role granting both, a general role granting one, and one
// account per realm.
func DefaultSeedData(hasher PasswordHasher) SeedData {
	return SeedData{
		Permissions: []Permission{
			{Code: "ccc", Description: "access ccc resources"},
			{Code: "ddd", Description: "access ddd resources"},
		},
		Roles: []SeedRole{
			{Name: "administrator", PermissionCodes: []string{"ccc", "ddd"}},
			{Name: "general", PermissionCodes: []string{"ccc"}},
		},
		Accounts: []SeedAccount{
			{
				Username:       "zhangsan",
				PasswordDigest: hasher.Hash("111111"),
				NickName:       "zhang san",
				Email:          "xxx@xx.com",
				PhoneNumber:    "13233323333",
				IsAdmin:        true,
				RoleNames:      []string{"administrator"},
			},
			{
				Username:       "lisi",
				PasswordDigest: hasher.Hash("222222"),
				NickName:       "li si",
				Email:          "yy@yy.com",
				IsAdmin:        false,
				RoleNames:      []string{"general"},
			},
		},
	}
}
