package agent_buffer

import "testing"

func TestElementWidth(t *testing.T) {
	tests := []struct {
		role AttributeRole
		want int
	}{
		{RolePositionX, 1},
		{RolePositionXY, 2},
		{RolePositionXYZ, 3},
		{RoleForwardXYZ, 3},
		{RoleUpY, 1},
		{RoleHeading, 1},
		{RoleDirectionHP, 2},
		{RoleDirectionHPB, 3},
		{RoleColor, 1},
		{RoleScaleXY, 2},
		{RoleScaleXYZ, 3},
		{RoleUniformScale, 1},
		{RoleCustom, 0},
		{AttributeRole(999), 0},
	}
	for _, tt := range tests {
		if got := ElementWidth(tt.role); got != tt.want {
			t.Errorf("ElementWidth(%v) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestEveryCoreRoleHasAUniqueShaderName(t *testing.T) {
	seen := map[string]AttributeRole{}
	for role := RolePositionX; role < RoleCustom; role++ {
		name := ShaderName(role)
		if name == "" {
			t.Errorf("%d has no shader name", role)
			continue
		}
		if other, dup := seen[name]; dup {
			t.Errorf("%v and %v share shader name %q", role, other, name)
		}
		seen[name] = role
		if w := ElementWidth(role); w < 1 || w > 3 {
			t.Errorf("%v has width %d", role, w)
		}
	}
	if RoleCustom.String() != "custom" {
		t.Errorf("RoleCustom.String() = %q", RoleCustom.String())
	}
}

func TestAttributeSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    AttributeSpec
		wantErr bool
	}{
		{"position only", AttributeSpec{Core: []AttributeRole{RolePositionXYZ}}, false},
		{"custom only", AttributeSpec{Custom: []CustomAttribute{{Name: "v", Width: 2, ArrayLength: 2}}}, false},
		{"empty", AttributeSpec{}, true},
		{"duplicate core", AttributeSpec{Core: []AttributeRole{RoleColor, RoleColor}}, true},
		{"custom shadows core", AttributeSpec{Core: []AttributeRole{RoleColor}, Custom: []CustomAttribute{{Name: "color", Width: 1}}}, true},
		{"unnamed custom", AttributeSpec{Custom: []CustomAttribute{{Width: 1}}}, true},
		{"zero width custom", AttributeSpec{Custom: []CustomAttribute{{Name: "v"}}}, true},
		{"too many attributes", AttributeSpec{
			Core: []AttributeRole{RolePositionXYZ, RoleForwardXYZ, RoleUpXYZ, RoleColor, RoleScaleXYZ},
			Custom: []CustomAttribute{
				{Name: "a", Width: 1}, {Name: "b", Width: 1}, {Name: "c", Width: 1}, {Name: "d", Width: 1},
			},
		}, true},
		{"array shorter than width", AttributeSpec{Custom: []CustomAttribute{{Name: "v", Width: 3, ArrayLength: 2}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
