package rpc

const ServiceName = "gophauth.IdentityService"

const (
	MethodRegister       = "Register"
	MethodGetToken       = "GetToken"
	MethodRefreshToken   = "RefreshToken"
	MethodUpdateProfile  = "UpdateProfile"
	MethodChangePassword = "ChangePassword"
	MethodGetUsers       = "GetUsers"
	MethodGetUser        = "GetUser"
	MethodGetRoles       = "GetRoles"
	MethodChangeStatus   = "ChangeStatus"
	MethodUpdateRoles    = "UpdateRoles"
	MethodAddClaim       = "AddClaim"
)

// FullMethod returns the "/service/method" path gRPC routes on.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Empty is the request of methods without parameters.
type Empty struct{}

// UserIDRequest addresses a single user.
type UserIDRequest struct {
	UserID string `json:"user_id"`
}
