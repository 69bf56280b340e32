package schema

import "github.com/prism-mfg/prism-cli/internal/model"

// DefaultVersion is the version of the built-in parameter table.
const DefaultVersion = "v3"

const (
	req = model.TierRequired
	rec = model.TierRecommended
	opt = model.TierOptional
)

func num(name string, tier model.Tier, group, unit string, lo, hi float64, rules ...string) model.SchemaEntry {
	return model.SchemaEntry{
		Name:  name,
		Kind:  model.KindNumeric,
		Tier:  tier,
		Group: group,
		Unit:  unit,
		Range: &model.Range{Min: lo, Max: hi},
		Rules: rules,
	}
}

func enum(name string, tier model.Tier, group string, allowed ...string) model.SchemaEntry {
	return model.SchemaEntry{Name: name, Kind: model.KindEnum, Tier: tier, Group: group, Allowed: allowed}
}

func str(name string, tier model.Tier, group string) model.SchemaEntry {
	return model.SchemaEntry{Name: name, Kind: model.KindString, Tier: tier, Group: group}
}

func pct(name string, tier model.Tier, hi float64) model.SchemaEntry {
	return num(name, tier, "composition", "wt%", 0, hi)
}

var (
	rating   = []string{"POOR", "FAIR", "GOOD", "EXCELLENT"}
	tendency = []string{"LOW", "MEDIUM", "HIGH"}
)

// builtinEntries is the v3 material parameter table.
func builtinEntries() []model.SchemaEntry {
	return []model.SchemaEntry{
		// identification
		str(ParamName, req, "identification"),
		enum(ParamISOGroup, req, "identification", ISOGroups...),
		enum(ParamMaterialClass, rec, "identification",
			"CARBON_STEEL", "ALLOY_STEEL", "TOOL_STEEL", "FREE_MACHINING_STEEL",
			"AUSTENITIC_STAINLESS", "MARTENSITIC_STAINLESS", "FERRITIC_STAINLESS", "DUPLEX_STAINLESS",
			"GRAY_IRON", "DUCTILE_IRON", "MALLEABLE_IRON", "CHILLED_IRON",
			"ALUMINUM_ALLOY", "COPPER_ALLOY", "MAGNESIUM_ALLOY",
			"NICKEL_ALLOY", "COBALT_ALLOY", "TITANIUM_ALLOY", "HARDENED_STEEL"),
		str("designation", rec, "identification"),
		enum("standard", opt, "identification", "AISI", "SAE", "DIN", "EN", "JIS", "GB", "UNS", "ISO"),
		enum("condition", rec, "identification",
			"ANNEALED", "NORMALIZED", "QUENCHED_TEMPERED", "HOT_ROLLED", "COLD_DRAWN",
			"SOLUTION_TREATED", "AGED", "CAST", "AS_FORGED"),
		enum("product_form", opt, "identification", "BAR", "PLATE", "SHEET", "FORGING", "CASTING", "TUBE", "WIRE"),

		// composition
		pct("carbon_pct", rec, 4.5),
		pct("silicon_pct", opt, 20),
		pct("manganese_pct", opt, 30),
		pct("phosphorus_pct", opt, 0.5),
		pct("sulfur_pct", opt, 0.5),
		pct("chromium_pct", opt, 40),
		pct("nickel_pct", opt, 100),
		pct("molybdenum_pct", opt, 30),
		pct("vanadium_pct", opt, 15),
		pct("tungsten_pct", opt, 30),
		pct("cobalt_pct", opt, 70),
		pct("copper_pct", opt, 100),
		pct("aluminum_pct", opt, 100),
		pct("titanium_pct", opt, 100),
		pct("niobium_pct", opt, 10),
		pct("nitrogen_pct", opt, 1),
		pct("boron_pct", opt, 0.1),
		pct("lead_pct", opt, 10),
		pct("tin_pct", opt, 20),
		pct("zinc_pct", opt, 50),
		pct("magnesium_pct", opt, 100),
		pct("iron_pct", opt, 100),
		pct("zirconium_pct", opt, 5),

		// physical
		num(ParamDensity, req, "physical", "g/cm3", 1.5, 21, RuleThermalDiffusivity),
		num(ParamMeltingPoint, req, "physical", "C", 300, 3500),
		num("solidus_temperature", opt, "physical", "C", 300, 3500),
		num("liquidus_temperature", opt, "physical", "C", 300, 3500),
		num(ParamThermalConductivity, req, "physical", "W/m-K", 1, 430, RuleThermalDiffusivity),
		num(ParamSpecificHeat, req, "physical", "J/kg-K", 100, 2000, RuleThermalDiffusivity),
		num("thermal_expansion", rec, "physical", "um/m-K", 0.5, 30),
		num(ParamThermalDiffusivity, opt, "physical", "mm2/s", 0.5, 200, RuleThermalDiffusivity),
		num("electrical_resistivity", opt, "physical", "uOhm-cm", 1, 200),
		num("magnetic_permeability", opt, "physical", "", 1, 10000),
		num("emissivity", opt, "physical", "", 0, 1),
		num("curie_temperature", opt, "physical", "C", -300, 1200),

		// elastic
		num(ParamElasticModulus, req, "elastic", "GPa", 10, 450, RuleShearModulus),
		num(ParamShearModulus, rec, "elastic", "GPa", 5, 200, RuleShearModulus),
		num(ParamPoissonsRatio, rec, "elastic", "", 0.1, 0.5, RuleShearModulus),
		num("bulk_modulus", opt, "elastic", "GPa", 5, 400),

		// mechanical
		num(ParamTensileStrength, req, "mechanical", "MPa", 50, 3000, RuleHardnessTensile, RuleYieldRatio),
		num(ParamYieldStrength, req, "mechanical", "MPa", 20, 2800, RuleYieldRatio),
		num("elongation", rec, "mechanical", "%", 0, 80),
		num("reduction_of_area", opt, "mechanical", "%", 0, 90),
		num(ParamHardness, req, "mechanical", "HB", 10, 750, RuleHardnessTensile, RuleVickersBrinell),
		num("hardness_hrc", opt, "mechanical", "HRC", 0, 72),
		num("hardness_hrb", opt, "mechanical", "HRB", 0, 120),
		num(ParamHardnessHV, opt, "mechanical", "HV", 10, 1000, RuleVickersBrinell),
		num("impact_energy", opt, "mechanical", "J", 0, 400),
		num("fatigue_strength", opt, "mechanical", "MPa", 10, 1500),
		num("fracture_toughness", opt, "mechanical", "MPa-m0.5", 1, 250),
		num("compressive_strength", opt, "mechanical", "MPa", 50, 4000),
		num("shear_strength", opt, "mechanical", "MPa", 30, 2000),
		num("strain_hardening_exponent", opt, "mechanical", "", 0, 0.7),
		num("strength_coefficient", opt, "mechanical", "MPa", 100, 4000),
		num("true_fracture_strain", opt, "mechanical", "", 0, 3),

		// machinability
		num(ParamMachinability, req, "machinability", "%", 1, 500),
		num(ParamKc11, req, "machinability", "N/mm2", 300, 4500),
		num(ParamMc, req, "machinability", "", 0.1, 0.5),
		num("taylor_c", rec, "machinability", "m/min", 10, 3000),
		num("taylor_n", rec, "machinability", "", 0.05, 1.0),
		num("jc_a", rec, "machinability", "MPa", 10, 3000),
		num("jc_b", rec, "machinability", "MPa", 10, 3000),
		num("jc_n", rec, "machinability", "", 0, 1.5),
		num("jc_c", rec, "machinability", "", 0, 0.2),
		num("jc_m", rec, "machinability", "", 0.1, 3),
		num("jc_reference_strain_rate", opt, "machinability", "1/s", 1e-5, 1e4),
		num("jc_reference_temperature", opt, "machinability", "C", -50, 100),
		enum("chip_type", rec, "machinability", "CONTINUOUS", "SEGMENTED", "DISCONTINUOUS", "BUILT_UP_EDGE"),
		enum("chip_breakability", opt, "machinability", "GOOD", "FAIR", "POOR"),
		enum("work_hardening_tendency", opt, "machinability", tendency...),
		enum("abrasiveness", opt, "machinability", tendency...),
		enum("built_up_edge_tendency", opt, "machinability", tendency...),
		num("cutting_temperature_factor", opt, "machinability", "", 0.1, 5),
		num("surface_finish_ra_typical", opt, "machinability", "um", 0.05, 25),
		num("tool_wear_factor", opt, "machinability", "", 0.1, 10),

		// cutting parameters
		num("turning_speed_min", rec, "cutting", "m/min", 1, 3000),
		num("turning_speed_max", rec, "cutting", "m/min", 1, 3000),
		num("turning_feed_min", opt, "cutting", "mm/rev", 0.01, 2),
		num("turning_feed_max", opt, "cutting", "mm/rev", 0.01, 2),
		num("milling_speed_min", rec, "cutting", "m/min", 1, 3000),
		num("milling_speed_max", rec, "cutting", "m/min", 1, 3000),
		num("milling_feed_min", opt, "cutting", "mm/tooth", 0.005, 1),
		num("milling_feed_max", opt, "cutting", "mm/tooth", 0.005, 1),
		num("drilling_speed_min", opt, "cutting", "m/min", 1, 1000),
		num("drilling_speed_max", opt, "cutting", "m/min", 1, 1000),
		num("drilling_feed_min", opt, "cutting", "mm/rev", 0.005, 1),
		num("drilling_feed_max", opt, "cutting", "mm/rev", 0.005, 1),
		num("threading_speed", opt, "cutting", "m/min", 1, 1000),
		num("reaming_speed", opt, "cutting", "m/min", 1, 500),
		num("tapping_speed", opt, "cutting", "m/min", 1, 300),
		num("grinding_speed", opt, "cutting", "m/s", 10, 120),
		num("boring_speed_min", opt, "cutting", "m/min", 1, 3000),
		num("boring_speed_max", opt, "cutting", "m/min", 1, 3000),
		num("parting_speed", opt, "cutting", "m/min", 1, 2000),
		num("depth_of_cut_max_roughing", opt, "cutting", "mm", 0.1, 20),
		num("depth_of_cut_finishing", opt, "cutting", "mm", 0.05, 3),
		enum("coolant_recommendation", opt, "cutting", "FLOOD", "MQL", "DRY", "HIGH_PRESSURE", "CRYO"),
		enum("recommended_tool_material", opt, "cutting", "HSS", "CARBIDE", "COATED_CARBIDE", "CERMET", "CERAMIC", "CBN", "PCD"),
		enum("recommended_coating", opt, "cutting", "NONE", "TIN", "TICN", "TIALN", "ALTIN", "ALCRN", "DLC", "DIAMOND"),

		// heat treatment
		num("annealing_temperature", opt, "heat_treatment", "C", 200, 1300),
		num("normalizing_temperature", opt, "heat_treatment", "C", 500, 1300),
		num("hardening_temperature", opt, "heat_treatment", "C", 500, 1300),
		num("tempering_temperature", opt, "heat_treatment", "C", 100, 750),
		enum("quench_medium", opt, "heat_treatment", "WATER", "OIL", "AIR", "POLYMER", "SALT", "GAS"),
		num("max_service_temperature", opt, "heat_treatment", "C", -273, 1400),
		num("recrystallization_temperature", opt, "heat_treatment", "C", 100, 1200),
		num("hot_working_temperature_min", opt, "heat_treatment", "C", 200, 1300),
		num("hot_working_temperature_max", opt, "heat_treatment", "C", 200, 1300),
		num("stress_relief_temperature", opt, "heat_treatment", "C", 100, 800),

		// application
		enum("corrosion_resistance", opt, "application", rating...),
		enum("weldability", opt, "application", rating...),
		enum("formability", opt, "application", rating...),
		num("pren", opt, "application", "", 0, 60),
		num("relative_cost", opt, "application", "index", 0.1, 200),
		num("recyclability", opt, "application", "%", 0, 100),
		num("carbon_footprint", opt, "application", "kgCO2/kg", 0.1, 100),
		enum("availability", opt, "application", "COMMON", "LIMITED", "SPECIAL_ORDER"),
		str("data_source", opt, "application"),
		enum("data_quality_grade", opt, "application", "A", "B", "C", "D"),
		str("notes", opt, "application"),
	}
}
