package entity

// Roles válidos para Profile. La jerarquía es fija: corporativo ⊇ gerente ⊇ empleado.
const (
	RoleCorporativo = "corporativo"
	RoleGerente     = "gerente"
	RoleEmpleado    = "empleado"
)

var roleLevels = map[string]int{
	RoleEmpleado:    1,
	RoleGerente:     2,
	RoleCorporativo: 3,
}

// Roles devuelve los roles de mayor a menor nivel.
func Roles() []string {
	return []string{RoleCorporativo, RoleGerente, RoleEmpleado}
}

// IsValidRole informa si el rol pertenece a la jerarquía.
func IsValidRole(role string) bool {
	_, ok := roleLevels[role]
	return ok
}

// RoleLevel nivel numérico del rol; 0 si no existe.
func RoleLevel(role string) int {
	return roleLevels[role]
}

// HasPermission informa si un usuario con rol actual cumple el rol requerido.
func HasPermission(actual, required string) bool {
	a, ok := roleLevels[actual]
	if !ok {
		return false
	}
	r, ok := roleLevels[required]
	if !ok {
		return false
	}
	return a >= r
}

// CanAssignRole informa si assigner puede otorgar target a otro usuario.
// corporativo asigna cualquier rol; el resto solo roles estrictamente inferiores al suyo.
func CanAssignRole(assigner, target string) bool {
	if !IsValidRole(assigner) || !IsValidRole(target) {
		return false
	}
	if assigner == RoleCorporativo {
		return true
	}
	return roleLevels[assigner] > roleLevels[target]
}

// CanManage informa si actor puede modificar a un usuario con rol target.
func CanManage(actor, target string) bool {
	return CanAssignRole(actor, target)
}
