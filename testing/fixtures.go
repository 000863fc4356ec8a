package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plain password of every fixture account
const FixturePassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates an account with the given role and a unique email and contact
func (tf *TestFixtures) CreateTestAccount(role string) (*models.Account, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	digits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)
	account := &models.Account{
		Name:         "Test " + role,
		Contact:      "9" + digits,
		Email:        fmt.Sprintf("%s.%s@example.com", role, digits),
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}
	return account, nil
}

// CreateTestFranchise creates a franchise owned by a fresh franchise account and links them both ways
func (tf *TestFixtures) CreateTestFranchise() (*models.Franchise, *models.Account, error) {
	owner, err := tf.CreateTestAccount(models.RoleFranchise)
	if err != nil {
		return nil, nil, err
	}

	franchise := &models.Franchise{
		AccountID: utils.ToPtr(owner.ID),
		FullName:  owner.Name,
		Email:     owner.Email,
		Contact:   owner.Contact,
		City:      "Kathmandu",
		Status:    models.FranchiseStatusApproved,
		AgentIDs:  pq.Int64Array{},
	}
	if err := tf.DB.DB.Create(franchise).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create test franchise: %w", err)
	}

	if err := tf.DB.DB.Model(owner).Update("franchise_id", franchise.ID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to link franchise owner: %w", err)
	}
	owner.FranchiseID = utils.ToPtr(franchise.ID)

	return franchise, owner, nil
}

// CreateTestAgent creates an agent account inside franchise and records it in the agent list
func (tf *TestFixtures) CreateTestAgent(franchise *models.Franchise) (*models.Account, error) {
	agent, err := tf.CreateTestAccount(models.RoleAgent)
	if err != nil {
		return nil, err
	}

	err = tf.DB.DB.Model(agent).Update("franchise_id", franchise.ID).Error
	if err == nil {
		err = tf.DB.DB.Exec("UPDATE franchises SET agent_ids = array_append(agent_ids, ?) WHERE id = ?", agent.ID, franchise.ID).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to attach agent to franchise: %w", err)
	}

	agent.FranchiseID = utils.ToPtr(franchise.ID)
	franchise.AgentIDs = append(franchise.AgentIDs, int64(agent.ID))
	return agent, nil
}

// CreateTestDistrict creates a district with an area inside it
func (tf *TestFixtures) CreateTestDistrict(name, areaName string) (*models.District, *models.Area, error) {
	district := &models.District{Name: name}
	if err := tf.DB.DB.Create(district).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create test district: %w", err)
	}

	area := &models.Area{Name: areaName, DistrictID: utils.ToPtr(district.ID)}
	if err := tf.DB.DB.Create(area).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create test area: %w", err)
	}
	return district, area, nil
}

// CreateTestProperty creates a listing owned by agent and filed under its franchise
func (tf *TestFixtures) CreateTestProperty(agent *models.Account, title string, price float64) (*models.Property, error) {
	property := &models.Property{
		Title:       title,
		Description: "Sunny home close to the ring road",
		Category:    models.CategoryHouse,
		Features:    pq.StringArray{"parking", "garden"},
		Images:      models.MediaList{{URL: "https://cdn.example.com/p/1.jpg", PublicID: "p/1"}},
		SellingType: models.SellingTypeSale,
		Price:       price,
		Address:     "Lazimpat, Kathmandu",
		Status:      models.PropertyStatusAvailable,
		AgentID:     utils.ToPtr(agent.ID),
		FranchiseID: agent.FranchiseID,
	}

	if err := tf.DB.DB.Create(property).Error; err != nil {
		return nil, fmt.Errorf("failed to create test property: %w", err)
	}
	return property, nil
}
