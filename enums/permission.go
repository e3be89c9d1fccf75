package enums

import "fmt"

// UserPermission is a permission name as stored in the permissions table.
type UserPermission string

const (
	SeePanel    UserPermission = "see_panel"
	ManageUsers UserPermission = "manage_users"

	// Advertisement
	EditAd    UserPermission = "edit_ad"
	EditAds   UserPermission = "edit_ads"
	CreateAd  UserPermission = "create_ad"
	DestroyAd UserPermission = "destroy_ad"
	PublishAd UserPermission = "publish_ad"

	Upload UserPermission = "upload"
)

var permissionNames = map[UserPermission]string{
	SeePanel:    "SeePanel",
	ManageUsers: "ManageUsers",
	EditAd:      "EditAd",
	EditAds:     "EditAds",
	CreateAd:    "CreateAd",
	DestroyAd:   "DestroyAd",
	PublishAd:   "PublishAd",
	Upload:      "Upload",
}

// Permissions returns every declared permission in declaration order.
func Permissions() []UserPermission {
	return []UserPermission{
		SeePanel,
		ManageUsers,
		EditAd,
		EditAds,
		CreateAd,
		DestroyAd,
		PublishAd,
		Upload,
	}
}

func ParsePermission(name string) (UserPermission, error) {
	p := UserPermission(name)
	if _, ok := permissionNames[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, name)
	}
	return p, nil
}

func (p UserPermission) Name() string {
	return permissionNames[p]
}

func (p UserPermission) String() string {
	return string(p)
}

// IsAdminLevel reports whether p is only meant for panel administrators.
func (p UserPermission) IsAdminLevel() bool {
	switch p {
	case SeePanel, ManageUsers:
		return true
	}
	return false
}

// Middleware returns the route guard identifier for p.
func (p UserPermission) Middleware() string {
	return "permission:" + string(p)
}
