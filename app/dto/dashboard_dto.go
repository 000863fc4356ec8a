package dto

// ChartSlice is one labelled value of a dashboard chart
type ChartSlice struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color,omitempty"`
}

type FranchiseDashboardResponse struct {
	AgentCount    int64        `json:"agentCount"`
	PropertyCount int64        `json:"propertyCount"`
	HouseCount    int64        `json:"houseCount"`
	PlotCount     int64        `json:"plotCount"`
	ChartData     []ChartSlice `json:"chartData"`
}

type SuperAdminStats struct {
	Users      int64 `json:"users"`
	Franchise  int64 `json:"franchise"`
	Properties int64 `json:"properties"`
	Plots      int64 `json:"plots"`
	Houses     int64 `json:"houses"`
	OnSale     int64 `json:"onSale"`
}

type SuperAdminDashboardResponse struct {
	Stats SuperAdminStats `json:"stats"`
	Pie   []ChartSlice    `json:"pie"`
}
