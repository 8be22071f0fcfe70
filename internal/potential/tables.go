package potential

// pengTable holds five-Gaussian electron scattering factor fits after
// Peng, Ren, Dudarev & Whelan (1996), Acta Cryst. A52. Coverage is the
// set of elements exercised by the bundled examples; extending it is a
// matter of adding rows.
var pengTable = map[int]pengEntry{
	1: { // H
		a: [5]float64{0.0349, 0.1201, 0.1970, 0.0573, 0.1195},
		b: [5]float64{0.5347, 3.5867, 12.3471, 18.9525, 38.6269},
	},
	6: { // C
		a: [5]float64{0.0893, 0.2563, 0.7570, 1.0487, 0.3575},
		b: [5]float64{0.2465, 1.7100, 6.4094, 18.6113, 50.2523},
	},
	7: { // N
		a: [5]float64{0.1022, 0.3219, 0.7982, 0.8197, 0.1715},
		b: [5]float64{0.2451, 1.7481, 6.1925, 17.3894, 48.1431},
	},
	8: { // O
		a: [5]float64{0.0974, 0.2921, 0.6910, 0.6990, 0.2039},
		b: [5]float64{0.2067, 1.3815, 4.6943, 12.7105, 32.4726},
	},
	11: { // Na
		a: [5]float64{0.2142, 0.6853, 0.7692, 1.6589, 1.4482},
		b: [5]float64{0.3334, 2.3446, 10.0830, 48.3037, 138.2700},
	},
	12: { // Mg
		a: [5]float64{0.2314, 0.6866, 0.9677, 2.1882, 1.1339},
		b: [5]float64{0.3278, 2.2720, 10.9241, 39.2898, 101.9748},
	},
	13: { // Al
		a: [5]float64{0.2390, 0.6573, 1.2011, 2.5586, 1.2312},
		b: [5]float64{0.3138, 2.1063, 10.4163, 34.4552, 98.5344},
	},
	14: { // Si
		a: [5]float64{0.2519, 0.6372, 1.3795, 2.5082, 1.0500},
		b: [5]float64{0.3075, 2.0174, 9.6746, 29.3799, 80.4732},
	},
	15: { // P
		a: [5]float64{0.2548, 0.6106, 1.4541, 2.3204, 0.8477},
		b: [5]float64{0.2908, 1.8740, 8.5176, 24.3434, 63.2996},
	},
	16: { // S
		a: [5]float64{0.2497, 0.5628, 1.3899, 2.1865, 0.7715},
		b: [5]float64{0.2681, 1.6711, 7.0267, 19.5377, 50.3888},
	},
	20: { // Ca
		a: [5]float64{0.4054, 1.3880, 2.1602, 3.7532, 2.2063},
		b: [5]float64{0.3499, 2.9328, 19.5410, 79.5339, 205.9475},
	},
	22: { // Ti
		a: [5]float64{0.3575, 1.1485, 1.9442, 3.3188, 1.8954},
		b: [5]float64{0.3260, 2.6506, 15.8518, 61.3178, 167.2262},
	},
	26: { // Fe
		a: [5]float64{0.3946, 1.2725, 1.7031, 2.3140, 1.4795},
		b: [5]float64{0.2717, 2.0443, 7.6007, 29.9714, 86.2265},
	},
	29: { // Cu
		a: [5]float64{0.4314, 1.3208, 1.5236, 1.4671, 0.8562},
		b: [5]float64{0.2694, 1.9223, 7.3474, 28.9892, 90.6246},
	},
	30: { // Zn
		a: [5]float64{0.4288, 1.2646, 1.4472, 1.8294, 1.0934},
		b: [5]float64{0.2593, 1.7998, 6.7500, 25.5860, 73.5284},
	},
	38: { // Sr
		a: [5]float64{0.7248, 2.2495, 3.3562, 4.4716, 2.9770},
		b: [5]float64{0.3710, 3.1648, 22.0018, 102.0415, 229.2403},
	},
	47: { // Ag
		a: [5]float64{0.5575, 1.5572, 2.9647, 3.0706, 1.2840},
		b: [5]float64{0.2200, 1.6491, 8.7106, 34.0744, 99.5446},
	},
	56: { // Ba
		a: [5]float64{1.0560, 2.7409, 4.6636, 5.3107, 3.6213},
		b: [5]float64{0.3708, 3.2774, 23.5745, 104.7180, 234.1150},
	},
	74: { // W
		a: [5]float64{0.6905, 2.0036, 3.5490, 4.3018, 1.9293},
		b: [5]float64{0.1910, 1.5022, 8.3271, 36.0052, 95.2085},
	},
	78: { // Pt
		a: [5]float64{0.6542, 1.8885, 3.4168, 3.7798, 1.7986},
		b: [5]float64{0.1742, 1.3598, 7.4457, 32.1645, 90.7619},
	},
	79: { // Au
		a: [5]float64{0.6446, 1.8652, 3.3874, 3.7089, 1.8397},
		b: [5]float64{0.1720, 1.3391, 7.2983, 31.4243, 89.4657},
	},
	82: { // Pb
		a: [5]float64{0.9651, 2.5874, 4.1615, 5.0672, 2.9467},
		b: [5]float64{0.2313, 1.9587, 11.4707, 45.6402, 118.0990},
	},
}

// kirklandTable holds the three-Lorentzian, three-Gaussian fits after
// Kirkland (2010), appendix C, for the elements covered above that see
// the most use with infinite projection.
var kirklandTable = map[int]kirklandEntry{
	6: { // C
		a: [3]float64{0.2126, 0.1997, 0.1679},
		b: [3]float64{0.2081, 0.2086, 22.7403},
		c: [3]float64{1.1376, 0.4516, 0.1250},
		d: [3]float64{9.0661, 2.5331, 0.5583},
	},
	8: { // O
		a: [3]float64{0.3686, 0.2809, 0.0721},
		b: [3]float64{0.4415, 0.4417, 13.8930},
		c: [3]float64{1.0724, 0.4510, 0.0839},
		d: [3]float64{6.5644, 1.7452, 0.3278},
	},
	14: { // Si
		a: [3]float64{1.0662, 0.1207, 0.3082},
		b: [3]float64{1.0435, 0.1566, 3.3879},
		c: [3]float64{2.1298, 1.1596, 0.1125},
		d: [3]float64{12.0535, 2.7911, 0.4381},
	},
	22: { // Ti
		a: [3]float64{0.9892, 1.4169, 0.2245},
		b: [3]float64{0.5209, 3.1355, 0.1182},
		c: [3]float64{2.8546, 1.3566, 0.1312},
		d: [3]float64{21.1887, 3.5062, 0.3754},
	},
	38: { // Sr
		a: [3]float64{1.3766, 1.9057, 0.3271},
		b: [3]float64{0.6721, 6.5094, 0.1172},
		c: [3]float64{6.3314, 2.2908, 0.1722},
		d: [3]float64{61.8190, 5.2375, 0.4128},
	},
	79: { // Au
		a: [3]float64{1.4221, 2.0452, 0.5219},
		b: [3]float64{0.3089, 2.8694, 0.0737},
		c: [3]float64{4.5346, 1.8626, 0.2133},
		d: [3]float64{20.7833, 2.7125, 0.3171},
	},
}
