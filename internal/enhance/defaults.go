package enhance

import "github.com/prism-mfg/prism-cli/internal/schema"

// literature holds handbook-typical values per classification group. Only
// parameters that vary little within a group are listed; strengths and
// hardness are absent.
var literature = map[string]map[string]any{
	schema.GroupSteel: {
		schema.ParamDensity:             7.85,
		schema.ParamMeltingPoint:        1480.0,
		schema.ParamThermalConductivity: 45.0,
		schema.ParamSpecificHeat:        480.0,
		schema.ParamElasticModulus:      205.0,
		schema.ParamPoissonsRatio:       0.29,
		"thermal_expansion":             12.0,
		schema.ParamMachinability:       60.0,
		schema.ParamKc11:                1700.0,
		schema.ParamMc:                  0.25,
		"taylor_n":                      0.25,
		"chip_type":                     "CONTINUOUS",
	},
	schema.GroupStainless: {
		schema.ParamDensity:             7.9,
		schema.ParamMeltingPoint:        1420.0,
		schema.ParamThermalConductivity: 16.0,
		schema.ParamSpecificHeat:        500.0,
		schema.ParamElasticModulus:      195.0,
		schema.ParamPoissonsRatio:       0.29,
		"thermal_expansion":             16.5,
		schema.ParamMachinability:       45.0,
		schema.ParamKc11:                2000.0,
		schema.ParamMc:                  0.21,
		"taylor_n":                      0.2,
		"chip_type":                     "CONTINUOUS",
	},
	schema.GroupCastIron: {
		schema.ParamDensity:             7.2,
		schema.ParamMeltingPoint:        1200.0,
		schema.ParamThermalConductivity: 50.0,
		schema.ParamSpecificHeat:        460.0,
		schema.ParamElasticModulus:      110.0,
		schema.ParamPoissonsRatio:       0.26,
		"thermal_expansion":             10.5,
		schema.ParamMachinability:       80.0,
		schema.ParamKc11:                1100.0,
		schema.ParamMc:                  0.28,
		"taylor_n":                      0.25,
		"chip_type":                     "DISCONTINUOUS",
	},
	schema.GroupNonFerrous: {
		schema.ParamDensity:             2.7,
		schema.ParamMeltingPoint:        640.0,
		schema.ParamThermalConductivity: 160.0,
		schema.ParamSpecificHeat:        900.0,
		schema.ParamElasticModulus:      70.0,
		schema.ParamPoissonsRatio:       0.33,
		"thermal_expansion":             23.0,
		schema.ParamMachinability:       300.0,
		schema.ParamKc11:                700.0,
		schema.ParamMc:                  0.25,
		"taylor_n":                      0.35,
		"chip_type":                     "CONTINUOUS",
	},
	schema.GroupSuperalloy: {
		schema.ParamDensity:             8.2,
		schema.ParamMeltingPoint:        1350.0,
		schema.ParamThermalConductivity: 11.0,
		schema.ParamSpecificHeat:        440.0,
		schema.ParamElasticModulus:      210.0,
		schema.ParamPoissonsRatio:       0.3,
		"thermal_expansion":             13.0,
		schema.ParamMachinability:       15.0,
		schema.ParamKc11:                2800.0,
		schema.ParamMc:                  0.25,
		"taylor_n":                      0.15,
		"chip_type":                     "SEGMENTED",
	},
	schema.GroupHardened: {
		schema.ParamDensity:             7.8,
		schema.ParamMeltingPoint:        1450.0,
		schema.ParamThermalConductivity: 30.0,
		schema.ParamSpecificHeat:        470.0,
		schema.ParamElasticModulus:      210.0,
		schema.ParamPoissonsRatio:       0.29,
		"thermal_expansion":             11.5,
		schema.ParamMachinability:       20.0,
		schema.ParamKc11:                3500.0,
		schema.ParamMc:                  0.2,
		"taylor_n":                      0.15,
		"chip_type":                     "SEGMENTED",
	},
}

// LiteratureDefault returns the handbook value of param for an ISO group.
func LiteratureDefault(group, param string) (any, bool) {
	v, ok := literature[group][param]
	return v, ok
}
