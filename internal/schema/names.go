package schema

// Parameter names referenced by code outside the static table.
const (
	ParamName                = "name"
	ParamISOGroup            = "iso_group"
	ParamMaterialClass       = "material_class"
	ParamDensity             = "density"
	ParamMeltingPoint        = "melting_point"
	ParamThermalConductivity = "thermal_conductivity"
	ParamSpecificHeat        = "specific_heat"
	ParamThermalDiffusivity  = "thermal_diffusivity"
	ParamElasticModulus      = "elastic_modulus"
	ParamShearModulus        = "shear_modulus"
	ParamPoissonsRatio       = "poissons_ratio"
	ParamTensileStrength     = "tensile_strength"
	ParamYieldStrength       = "yield_strength"
	ParamHardness            = "hardness"
	ParamHardnessHV          = "hardness_hv"
	ParamMachinability       = "machinability_rating"
	ParamKc11                = "kc1_1"
	ParamMc                  = "mc"
)

// Cross-field rule names.
const (
	RuleHardnessTensile    = "hardness_to_tensile"
	RuleShearModulus       = "shear_modulus"
	RuleVickersBrinell     = "vickers_brinell"
	RuleThermalDiffusivity = "thermal_diffusivity"
	RuleYieldRatio         = "yield_ratio"
)

// ISO 513 machining groups used as the classification group.
const (
	GroupSteel      = "P-STEEL"
	GroupStainless  = "M-STAINLESS"
	GroupCastIron   = "K-CAST_IRON"
	GroupNonFerrous = "N-NONFERROUS"
	GroupSuperalloy = "S-SUPERALLOY"
	GroupHardened   = "H-HARDENED"
)

// ISOGroups lists the classification groups in ISO 513 order.
var ISOGroups = []string{GroupSteel, GroupStainless, GroupCastIron, GroupNonFerrous, GroupSuperalloy, GroupHardened}
