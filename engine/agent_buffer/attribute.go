package agent_buffer

import "fmt"

// AttributeRole identifies the semantic meaning of one rendered per-agent attribute.
// The role determines how many float32 elements each agent occupies in the backing buffer
// and which variable name the generated shader uses to read it.
type AttributeRole int

const (
	// RolePositionX is the x component of a split position.
	RolePositionX AttributeRole = iota
	// RolePositionY is the y component of a split position.
	RolePositionY
	// RolePositionZ is the z component of a split position.
	RolePositionZ
	// RolePositionXY is a packed 2D position.
	RolePositionXY
	// RolePositionXYZ is a packed 3D position.
	RolePositionXYZ

	// RoleForwardX is the x component of the forward (direction) vector.
	RoleForwardX
	// RoleForwardY is the y component of the forward (direction) vector.
	RoleForwardY
	// RoleForwardZ is the z component of the forward (direction) vector.
	RoleForwardZ
	// RoleForwardXYZ is a packed forward vector.
	RoleForwardXYZ
	// RoleUpX is the x component of the up vector.
	RoleUpX
	// RoleUpY is the y component of the up vector.
	RoleUpY
	// RoleUpZ is the z component of the up vector.
	RoleUpZ
	// RoleUpXYZ is a packed up vector.
	RoleUpXYZ

	// RoleHeading is the heading (yaw) angle in radians.
	RoleHeading
	// RolePitch is the pitch angle in radians.
	RolePitch
	// RoleBank is the bank (roll) angle in radians.
	RoleBank
	// RoleDirectionHP packs heading and pitch.
	RoleDirectionHP
	// RoleDirectionHPB packs heading, pitch and bank.
	RoleDirectionHPB

	// RoleColor is a scalar color value, mapped to a palette by the shader.
	RoleColor

	// RoleScaleX is the x component of a split scale.
	RoleScaleX
	// RoleScaleY is the y component of a split scale.
	RoleScaleY
	// RoleScaleZ is the z component of a split scale.
	RoleScaleZ
	// RoleScaleXY is a packed 2D scale.
	RoleScaleXY
	// RoleScaleXYZ is a packed 3D scale.
	RoleScaleXYZ
	// RoleUniformScale is a single scale factor applied to every axis.
	RoleUniformScale

	// RoleCustom marks a user-defined attribute described by a CustomAttribute.
	RoleCustom
)

// roleInfo is the fixed lookup entry for a core attribute role.
type roleInfo struct {
	width      int
	shaderName string
}

var roleTable = map[AttributeRole]roleInfo{
	RolePositionX:    {1, "x_pos"},
	RolePositionY:    {1, "y_pos"},
	RolePositionZ:    {1, "z_pos"},
	RolePositionXY:   {2, "xy_pos"},
	RolePositionXYZ:  {3, "xyz_pos"},
	RoleForwardX:     {1, "x_fwd"},
	RoleForwardY:     {1, "y_fwd"},
	RoleForwardZ:     {1, "z_fwd"},
	RoleForwardXYZ:   {3, "xyz_fwd"},
	RoleUpX:          {1, "x_up"},
	RoleUpY:          {1, "y_up"},
	RoleUpZ:          {1, "z_up"},
	RoleUpXYZ:        {3, "xyz_up"},
	RoleHeading:      {1, "heading"},
	RolePitch:        {1, "pitch"},
	RoleBank:         {1, "bank"},
	RoleDirectionHP:  {2, "direction_hp"},
	RoleDirectionHPB: {3, "direction_hpb"},
	RoleColor:        {1, "color"},
	RoleScaleX:       {1, "x_scale"},
	RoleScaleY:       {1, "y_scale"},
	RoleScaleZ:       {1, "z_scale"},
	RoleScaleXY:      {2, "xy_scale"},
	RoleScaleXYZ:     {3, "xyz_scale"},
	RoleUniformScale: {1, "uniform_scale"},
}

// ElementWidth returns the number of float32 elements one agent occupies for the given core role.
// It returns 0 for RoleCustom and unknown roles; custom widths come from CustomAttribute.Width.
//
// Parameters:
//   - role: the attribute role to look up
//
// Returns:
//   - int: element width in the range 1-3, or 0 if the role has no fixed width
func ElementWidth(role AttributeRole) int {
	return roleTable[role].width
}

// ShaderName returns the shader-visible variable name for a core role, or "" for custom and unknown roles.
//
// Parameters:
//   - role: the attribute role to look up
//
// Returns:
//   - string: the variable name used by generated shaders
func ShaderName(role AttributeRole) string {
	return roleTable[role].shaderName
}

func (r AttributeRole) String() string {
	if r == RoleCustom {
		return "custom"
	}
	if info, ok := roleTable[r]; ok {
		return info.shaderName
	}
	return fmt.Sprintf("AttributeRole(%d)", int(r))
}

// CustomAttribute describes a user-defined rendered attribute.
type CustomAttribute struct {
	// Name is the shader-visible variable name.
	Name string
	// Width is the number of float32 elements per agent (1-3).
	Width int
	// ArrayLength is the declared array length of the simulation variable and the source stride
	// per agent. Only elements 0..Width-1 of each agent are copied. 0 means the source is packed.
	ArrayLength int
}

// MaxSlots is the most attributes one population can render, the per-stage storage buffer count
// every WebGPU implementation supports.
const MaxSlots = 8

// AttributeSpec lists the attributes a population renders. Core roles are laid out first in the
// given order, followed by custom attributes; that order is also the copy order and the texture
// unit order.
type AttributeSpec struct {
	Core   []AttributeRole
	Custom []CustomAttribute
}

// SlotCount returns the total number of buffer slots the spec produces.
func (s AttributeSpec) SlotCount() int {
	return len(s.Core) + len(s.Custom)
}

// validate checks every role and custom width, returning an error wrapping ErrInvalidAttributeSpec.
func (s AttributeSpec) validate() error {
	if s.SlotCount() == 0 {
		return fmt.Errorf("%w: no attributes", ErrInvalidAttributeSpec)
	}
	if s.SlotCount() > MaxSlots {
		return fmt.Errorf("%w: %d attributes, at most %d", ErrInvalidAttributeSpec, s.SlotCount(), MaxSlots)
	}
	seen := make(map[string]bool, s.SlotCount())
	for _, role := range s.Core {
		if role == RoleCustom || ElementWidth(role) == 0 {
			return fmt.Errorf("%w: %v is not a core role", ErrInvalidAttributeSpec, role)
		}
		name := ShaderName(role)
		if seen[name] {
			return fmt.Errorf("%w: duplicate attribute %q", ErrInvalidAttributeSpec, name)
		}
		seen[name] = true
	}
	for _, c := range s.Custom {
		if c.Name == "" {
			return fmt.Errorf("%w: custom attribute without a name", ErrInvalidAttributeSpec)
		}
		if c.Width < 1 || c.Width > 3 {
			return fmt.Errorf("%w: custom attribute %q has width %d, want 1-3", ErrInvalidAttributeSpec, c.Name, c.Width)
		}
		if c.ArrayLength != 0 && c.ArrayLength < c.Width {
			return fmt.Errorf("%w: custom attribute %q array length %d is shorter than width %d", ErrInvalidAttributeSpec, c.Name, c.ArrayLength, c.Width)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate attribute %q", ErrInvalidAttributeSpec, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
