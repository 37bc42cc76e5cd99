// Package testsupport provides fixtures shared by package tests.
package testsupport

import (
	"github.com/spigell/outlet-matcher/internal/outlet"
)

// EducationAbstract and EducationIndustry form the reference education pitch.
const (
	EducationAbstract = "Our AI-powered learning platform helps students improve their math skills through personalized tutoring and adaptive assessments."
	EducationIndustry = "Education & Policy Leaders"

	SecurityAbstract = "Our threat intelligence platform detects ransomware campaigns before they reach enterprise networks."
	SecurityIndustry = "Cybersecurity"
)

// Catalog returns a mixed catalog covering specialist, adjacent and off-topic outlets.
// Every call returns fresh values.
func Catalog() *outlet.Outlets {
	return &outlet.Outlets{Items: []*outlet.Outlet{
		{
			ID:          "edsurge",
			Name:        "EdSurge",
			Keywords:    "edtech, personalized learning",
			Audience:    "Education & Policy Leaders",
			SectionName: "Opinion",
			Guidelines:  "Op-eds of 600-1,200 words. Data-driven pieces preferred.",
			PitchTips:   "Focus on classroom outcomes. Avoid product pitches.",
			Prestige:    "High",
		},
		{
			ID:          "hechinger",
			Name:        "The Hechinger Report",
			Keywords:    "education, k-12, higher ed, student outcomes",
			Audience:    "Teachers, school leaders and education policy makers",
			SectionName: "Analysis",
			Prestige:    "Medium",
		},
		{
			ID:          "dark-reading",
			Name:        "Dark Reading",
			Keywords:    "cybersecurity, threat intelligence",
			Audience:    "Security professionals",
			SectionName: "News",
			Prestige:    "High",
		},
		{
			ID:          "techcrunch",
			Name:        "TechCrunch",
			Keywords:    "technology, startups, software",
			Audience:    "Tech founders and investors",
			SectionName: "Feature",
			Prestige:    "High",
		},
		{
			ID:          "food-wine",
			Name:        "Food & Wine",
			Keywords:    "food, recipes, restaurant, dining",
			Audience:    "Home cooks",
			SectionName: "Recipes",
			Prestige:    "High",
		},
		{
			ID:          "construction-dive",
			Name:        "Construction Dive",
			Keywords:    "construction, contractor, building materials",
			Audience:    "Contractors",
			SectionName: "News",
			Prestige:    "Medium",
		},
		{
			ID:          "smallbiz-daily",
			Name:        "SmallBiz Daily",
			Keywords:    "small business, entrepreneurship, business news",
			Audience:    "Small business owners",
			SectionName: "News",
			Prestige:    "Low",
		},
		{
			ID:          "finextra",
			Name:        "Finextra",
			Keywords:    "fintech, payments, banking",
			Audience:    "Bank executives",
			SectionName: "News",
			Prestige:    "Medium",
		},
	}}
}
