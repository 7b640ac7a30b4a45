package vocabulary

// DefaultVersion identifies the built-in lists.
const DefaultVersion = "2025.1"

// Default returns a fresh copy of the built-in vocabulary.
func Default() *Vocabulary {
	return &Vocabulary{
		Version: DefaultVersion,
		Domains: []Domain{
			{Name: "metabolic", Keywords: []string{
				"diabetes", "diabetic", "glucose", "insulin", "sugar", "hyperglycemia", "hypoglycemia",
				"hba1c", "glycated hemoglobin", "ketoacidosis", "diabetic nephropathy", "diabetic retinopathy",
			}},
			{Name: "cardiovascular", Keywords: []string{
				"heart", "cardiac", "cardiovascular", "coronary", "angina", "myocardial infarction",
				"hypertension", "blood pressure", "cholesterol", "triglycerides", "ecg", "echocardiogram",
			}},
			{Name: "renal", Keywords: []string{
				"kidney", "renal", "nephritis", "nephropathy", "creatinine", "urea", "proteinuria",
				"hemodialysis", "dialysis", "glomerulonephritis",
			}},
			{Name: "respiratory", Keywords: []string{
				"lung", "pulmonary", "respiratory", "asthma", "copd", "bronchitis", "pneumonia",
				"spirometry", "peak flow", "oxygen saturation",
			}},
			{Name: "neurological", Keywords: []string{
				"brain", "neurological", "epilepsy", "seizure", "multiple sclerosis", "ms",
				"parkinson", "alzheimer", "dementia", "migraine", "headache",
			}},
			{Name: "endocrine", Keywords: []string{
				"thyroid", "hypothyroidism", "hyperthyroidism", "tsh", "t4", "t3",
				"adrenal", "cortisol", "addison", "cushing",
			}},
			{Name: "rheumatological", Keywords: []string{
				"arthritis", "rheumatoid", "rheumatoid arthritis", "joint", "arthropathy", "lupus", "sle",
				"inflammatory", "autoimmune", "rheumatism",
			}},
			{Name: "hematological", Keywords: []string{
				"blood", "anemia", "hemoglobin", "platelet", "coagulation", "bleeding",
				"haemophilia", "thrombosis", "embolism",
			}},
			{Name: "ophthalmological", Keywords: []string{
				"eye", "vision", "glaucoma", "retinal", "ophthalmic", "cataract",
				"tonometry", "fundus", "visual field",
			}},
			{Name: "psychiatric", Keywords: []string{
				"depression", "anxiety", "bipolar", "schizophrenia", "mood", "mental",
				"psychiatric", "psychological", "cognitive",
			}},
			{Name: "general", Keywords: []string{
				"fatigue", "weakness", "pain", "fever", "weight loss", "weight gain",
				"nausea", "vomiting", "diarrhea", "constipation", "shortness of breath",
				"chest pain", "abdominal pain", "headache", "dizziness", "syncope",
			}},
		},
		Medications: []string{
			"metformin", "insulin", "aspirin", "warfarin", "atorvastatin",
			"lisinopril", "metoprolol", "omeprazole", "prednisone", "methotrexate",
		},
		LabNames: []string{
			"glucose", "creatinine", "urea", "cholesterol", "triglycerides",
			"hb", "hba1c", "tsh", "t4", "t3", "cortisol",
		},
		Specificity: []string{
			"hba1c", "ketoacidosis", "diabetic nephropathy", "diabetic retinopathy",
			"myocardial infarction", "angina", "hypertension", "creatinine",
			"proteinuria", "hemodialysis", "spirometry", "peak flow",
			"seizure", "epilepsy", "multiple sclerosis", "parkinson",
			"hypothyroidism", "hyperthyroidism", "cortisol", "addison",
			"rheumatoid arthritis", "lupus", "sle", "haemophilia",
			"glaucoma", "tonometry", "fundus", "bipolar", "schizophrenia",
		},
		ContextRules: []ContextRule{
			{Name: "time course", Pattern: `(?i)recent|acute|chronic|long.?term|ongoing`, Terms: []string{"chronic", "ongoing"}},
			{Name: "severity", Pattern: `(?i)severe|mild|moderate|advanced|progressive`, Terms: []string{"severe", "progressive"}},
			{Name: "family history", Pattern: `(?i)family history|hereditary|genetic|inherited`, Terms: []string{"hereditary", "genetic"}},
			{Name: "medication response", Pattern: `(?i)responds to|improved with|controlled by|resistant to`, Terms: []string{"medication response"}},
			{Name: "complications", Pattern: `(?i)complication|secondary to|resulting in|leading to`, Terms: []string{"complications"}},
		},
	}
}
