package advisor

import (
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/agent"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/health"
)

// Agent and pipeline names, which double as their tool names.
const (
	LocationAgentName     = "location_agent"
	PovertyAgentName      = "poverty_agent"
	AirQualityAgentName   = "air_quality_agent"
	MobileClinicAgentName = "mobile_clinic_agent"
	SummarizerAgentName   = "summarizer_agent"
	InsightsPipelineName  = "health_insights_pipeline"
	RootAgentName         = "root_agent"
)

func locationAgent(model string) agent.Config {
	return agent.Config{
		Name:        LocationAgentName,
		Model:       model,
		Description: "Finds the 5 nearest zip codes for a location, inferring the location from the caller's IP when none is given.",
		Instruction: "You are an expert in geolocation. Your task is to find the 5 nearest zip codes " +
			"for a given location. Pass a zip code when the user gives one, or the place name (like " +
			"'Beverly Hills, CA') when they name a city; call the tool with no arguments to detect " +
			"the user's current location from their IP address.",
		Tools: []string{"nearest_zipcodes"},
	}
}

func povertyAgent(model string) agent.Config {
	return agent.Config{
		Name:        PovertyAgentName,
		Model:       model,
		Description: "Fetches the family poverty rate for a list of zip codes from Census Bureau data.",
		Instruction: "You are an expert in socioeconomic data. Your task is to get the poverty levels " +
			"for a given list of zip codes. A value of -1.0 means the Census API key is not set and " +
			"the data is unavailable; say so instead of reporting the number.",
		Tools: []string{"get_poverty_levels"},
	}
}

func airQualityAgent(model string) agent.Config {
	return agent.Config{
		Name:        AirQualityAgentName,
		Model:       model,
		Description: "Retrieves the latest Air Quality Index (AQI) for zip codes from EPA data.",
		Instruction: "You are an environmental data specialist. Your task is to retrieve the latest " +
			"Air Quality Index (AQI) for the given zip codes using EPA monitoring data.",
		Tools: []string{"get_air_quality"},
	}
}

func mobileClinicAgent(model string) agent.Config {
	return agent.Config{
		Name:        MobileClinicAgentName,
		Model:       model,
		Description: "Retrieves mobile health clinic deployment history for a list of zip codes.",
		Instruction: "You are a data specialist. Your task is to retrieve details about mobile health " +
			"clinic deployments for a list of zip codes and report them clearly, newest first.",
		Tools: []string{"get_clinic_deployments"},
	}
}

func summarizerAgent(model string) agent.Config {
	return agent.Config{
		Name:        SummarizerAgentName,
		Model:       model,
		Description: "Summarizes data and provides key insights. Use this to get a high-level overview of data gathered from other tools.",
		Instruction: "You are an expert data analyst. Your task is to take the provided data and produce " +
			"a concise, human-readable summary. Highlight the most important findings, trends, or key " +
			"insights. Your output should be a clear and brief summary of the information provided.",
	}
}

// insightsStages is the three-step analysis workflow: structure the raw
// report, research the identified issues, then synthesize an
// ActionableInsight.
func insightsStages(model string, withSearch bool) []agent.Config {
	structuring := agent.Config{
		Name:        "data_structuring_agent",
		Model:       model,
		Description: "Structures raw health report text into health events.",
		Instruction: "You are a data structuring specialist for a public health organization. " +
			"Analyze the unstructured health data you are given. Extract key health issues and link " +
			"them to the specific locations mentioned in relation to them. A location can be a zip " +
			"code, a neighborhood, a district, or a general area such as \"downtown\" or \"the " +
			"industrial park\". Signals to look for include healthcare access issues (underserved " +
			"areas, uninsured populations, lack of clinics), environmental risks (pollution, " +
			"air or water quality, heatwaves), disease outbreaks (flu clusters, infectious disease " +
			"signals), and emerging crises (ER surges, public safety alerts). You may use the " +
			"classify_health_report tool to seed your analysis with deterministic keyword matches. " +
			"For each distinct issue, create one health event with the issue and every location " +
			"associated with it.",
		OutputSchema: agent.SchemaFor[health.HealthAnalysis](),
		OutputKey:    "structured_analysis",
		Tools:        []string{"classify_health_report"},
	}

	researcher := agent.Config{
		Name:        "researcher_agent",
		Model:       model,
		Description: "Researches the identified health issues for local context.",
		Instruction: "You are a research assistant for a public health organization. Based on this " +
			"structured analysis:\n{structured_analysis}\nfind relevant, localized context for each " +
			"health event. For each event, search for the issue combined with each of its locations, " +
			"for example \"flu outbreak 90210\". Report recent news, official reports, or community " +
			"discussions about each issue in its area.",
		OutputKey: "research_findings",
	}
	if withSearch {
		researcher.Tools = []string{"web_search"}
	}

	creator := agent.Config{
		Name:        "insights_creator_agent",
		Model:       model,
		Description: "Generates an actionable, structured insight from the analyzed data.",
		Instruction: "You are a public health analyst creating actionable intelligence for a crisis " +
			"response system. Synthesize the structured data and research findings into a final " +
			"insight. Write a concise, human-readable summary of the problem, affected areas, and " +
			"primary needs, incorporating the research findings. Categorize the main issue as " +
			"HEALTHCARE_ACCESS, ENVIRONMENTAL_RISK, DISEASE_OUTBREAK, EMERGING_CRISIS, or " +
			"GENERAL_HEALTH_CONCERN. Propose a single, concrete next step for a health organization, " +
			"such as \"Recommend deploying a mobile health unit to zip code 90210\".\n\n" +
			"Structured Data: {structured_analysis}\nResearch Findings: {research_findings}",
		OutputSchema: agent.SchemaFor[health.ActionableInsight](),
	}

	return []agent.Config{structuring, researcher, creator}
}

func rootAgent(model string) agent.Config {
	return agent.Config{
		Name:        RootAgentName,
		Model:       model,
		Description: "A friendly and helpful Community Health & Wellness Advisor.",
		Instruction: "You are the Community Health & Wellness Advisor. Your primary goal is to provide " +
			"conversational, hyper-local, and actionable health intelligence.\n" +
			"Start by greeting the user warmly.\n" +
			"Your workflow should be as follows:\n" +
			"1. If the user provides a location or asks for information 'near me', use the " +
			"location_agent to find the 5 nearest zip codes. The location_agent can infer the " +
			"location if not provided.\n" +
			"2. Once you have the zip codes, use the other agents to gather relevant data:\n" +
			"   - Use the poverty_agent to get poverty levels for those zip codes.\n" +
			"   - Use the mobile_clinic_agent to find information about mobile health clinic deployments.\n" +
			"   - Use the air_quality_agent to get the Air Quality Index (AQI) for specific zip codes.\n" +
			"   - Use the health_insights_pipeline to analyze unstructured health reports into " +
			"structured, actionable insights.\n" +
			"   - Use the summarizer_agent to get a high-level overview of data gathered from other tools.\n" +
			"3. Synthesize all the gathered information into a clear, friendly, and helpful final answer.",
		Tools: []string{
			LocationAgentName,
			PovertyAgentName,
			AirQualityAgentName,
			MobileClinicAgentName,
			SummarizerAgentName,
			InsightsPipelineName,
		},
	}
}
