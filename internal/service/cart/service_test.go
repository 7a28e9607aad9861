package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type stubRepo struct {
	records    map[string]*cartrepo.Record
	giftCards  map[string]cartrepo.GiftCard
	discounts  map[string]int
	createErr  error
	products   *stubProductRepo
	addLineErr error
	lastAdds   []cartrepo.LineAdd
	nextLine   int
	lastCreate cartrepo.CreateCartInput
	writes     int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		records:   map[string]*cartrepo.Record{},
		giftCards: map[string]cartrepo.GiftCard{},
		discounts: map[string]int{},
	}
}

func (s *stubRepo) put(c domain.Cart) {
	s.records[c.ID] = &cartrepo.Record{Cart: c, DiscountPermyriad: map[string]int{}}
}

func (s *stubRepo) get(id string) (*cartrepo.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rec
	out.Cart = rec.Cart.Clone()
	out.GiftCards = append([]cartrepo.GiftCard(nil), rec.GiftCards...)
	return &out, nil
}

func (s *stubRepo) Create(_ context.Context, in cartrepo.CreateCartInput) (*cartrepo.Record, error) {
	s.lastCreate = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.put(domain.Cart{ID: "cart-new", ShopID: in.ShopID, CustomerID: in.CustomerID, AnonymousID: in.AnonymousID, Currency: in.Currency, State: domain.CartStateActive})
	return s.get("cart-new")
}

func (s *stubRepo) GetByID(_ context.Context, _, id string) (*cartrepo.Record, error) {
	return s.get(id)
}

func (s *stubRepo) GetActiveByCustomer(_ context.Context, _, customerID string) (*cartrepo.Record, error) {
	for id, rec := range s.records {
		if rec.Cart.CustomerID != nil && *rec.Cart.CustomerID == customerID {
			return s.get(id)
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetActiveByAnonymous(_ context.Context, _, anonymousID string) (*cartrepo.Record, error) {
	for id, rec := range s.records {
		if rec.Cart.AnonymousID != nil && *rec.Cart.AnonymousID == anonymousID {
			return s.get(id)
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) AssignCustomerToAnonymous(_ context.Context, _, anonymousID, customerID string) (*cartrepo.Record, error) {
	for id, rec := range s.records {
		if rec.Cart.AnonymousID != nil && *rec.Cart.AnonymousID == anonymousID {
			rec.Cart.CustomerID = strPtr(customerID)
			return s.get(id)
		}
	}
	return nil, domain.ErrNotFound
}

// AddLines validates the whole batch before writing, like the transaction.
func (s *stubRepo) AddLines(_ context.Context, cartID string, adds []cartrepo.LineAdd) error {
	s.lastAdds = adds
	if s.addLineErr != nil {
		return s.addLineErr
	}
	c := &s.records[cartID].Cart
	resulting := map[string]int{}
	for i, add := range adds {
		if _, ok := resulting[add.Product.ID]; !ok {
			if j := c.LineByMerchandise(add.Product.ID); j >= 0 {
				resulting[add.Product.ID] = c.Lines[j].Quantity
			}
		}
		resulting[add.Product.ID] += add.Quantity
		if !add.Product.CanFulfil(resulting[add.Product.ID]) {
			return &cartrepo.StockError{Index: i}
		}
	}
	s.writes++
	for _, add := range adds {
		if i := c.LineByMerchandise(add.Product.ID); i >= 0 {
			c.Lines[i].Quantity += add.Quantity
			c.Lines[i].Cost.TotalAmount = c.Lines[i].Cost.AmountPerQuantity.Times(c.Lines[i].Quantity)
			continue
		}
		s.nextLine++
		c.Lines = append(c.Lines, line("line-"+itoa(s.nextLine), add.Product.ID, add.Quantity, add.Product.PriceCents))
	}
	return nil
}

func (s *stubRepo) SetLineQuantities(_ context.Context, cartID string, changes []cartrepo.LineQuantity) error {
	c := &s.records[cartID].Cart
	for i, change := range changes {
		j := c.LineByID(change.LineID)
		if j < 0 {
			return domain.ErrNotFound
		}
		if p, ok := s.products.products[c.Lines[j].MerchandiseID]; ok && change.Quantity > 0 && !p.CanFulfil(change.Quantity) {
			return &cartrepo.StockError{Index: i}
		}
	}
	s.writes++
	for _, change := range changes {
		i := c.LineByID(change.LineID)
		if change.Quantity <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			continue
		}
		c.Lines[i].Quantity = change.Quantity
		c.Lines[i].Cost.TotalAmount = c.Lines[i].Cost.AmountPerQuantity.Times(change.Quantity)
	}
	return nil
}

func (s *stubRepo) RemoveLines(_ context.Context, cartID string, lineIDs []string) error {
	s.writes++
	c := &s.records[cartID].Cart
	for _, id := range lineIDs {
		if i := c.LineByID(id); i >= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		}
	}
	return nil
}

func (s *stubRepo) ReplaceDiscountCodes(_ context.Context, _, cartID string, codes []string) error {
	s.writes++
	rec := s.records[cartID]
	rec.Cart.DiscountCodes = nil
	rec.DiscountPermyriad = map[string]int{}
	for _, code := range codes {
		p, ok := s.discounts[code]
		rec.Cart.DiscountCodes = append(rec.Cart.DiscountCodes, domain.DiscountCode{Code: code, Applicable: ok})
		if ok {
			rec.DiscountPermyriad[code] = p
		}
	}
	return nil
}

func (s *stubRepo) FindGiftCard(_ context.Context, _, code string) (*cartrepo.GiftCard, error) {
	for _, g := range s.giftCards {
		if equalFold(g.Code, code) {
			g := g
			return &g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) AttachGiftCards(_ context.Context, cartID string, giftCardIDs []string) error {
	s.writes++
	rec := s.records[cartID]
	for _, id := range giftCardIDs {
		attached := false
		for _, g := range rec.GiftCards {
			attached = attached || g.ID == id
		}
		if !attached {
			rec.GiftCards = append(rec.GiftCards, s.giftCards[id])
		}
	}
	return nil
}

func (s *stubRepo) DetachGiftCards(_ context.Context, cartID string, ids []string) error {
	rec := s.records[cartID]
	var kept []cartrepo.GiftCard
	removed := 0
	for _, g := range rec.GiftCards {
		if contains(ids, g.ID) {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	if removed == 0 {
		return domain.ErrNotFound
	}
	s.writes++
	rec.GiftCards = kept
	return nil
}

type stubProductRepo struct {
	products map[string]domain.Product
	err      error
}

func (s *stubProductRepo) GetByID(_ context.Context, _, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func strPtr(v string) *string {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	return len(a) == len(b) && (a == b || upper(a) == upper(b))
}

func upper(v string) string {
	out := []byte(v)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - 32
		}
	}
	return string(out)
}

func line(id, merch string, qty int, unitCents int64) domain.CartLine {
	unit := domain.MoneyFromCents(unitCents, "USD")
	return domain.CartLine{
		ID:            id,
		MerchandiseID: merch,
		Quantity:      qty,
		Cost:          domain.CartLineCost{AmountPerQuantity: unit, TotalAmount: unit.Times(qty)},
	}
}

const anon = "anon-1"

func fixture() (*Service, *stubRepo, *stubProductRepo) {
	repo := newStubRepo()
	repo.put(domain.Cart{
		ID:          "cart-1",
		AnonymousID: strPtr(anon),
		Currency:    "USD",
		State:       domain.CartStateActive,
		Lines:       []domain.CartLine{line("line-a", "prod-a", 1, 1000)},
	})
	products := &stubProductRepo{products: map[string]domain.Product{
		"prod-a": {ID: "prod-a", Title: "Mug", PriceCents: 1000, Currency: "USD"},
		"prod-b": {ID: "prod-b", Title: "Lamp", PriceCents: 2500, Currency: "USD", InventoryQuantity: intPtr(2)},
	}}
	repo.products = products
	return New(repo, products, "https://checkout.test/", nil), repo, products
}

func owner() Owner {
	return Owner{AnonymousID: anon}
}

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestServiceCreateValidation(t *testing.T) {
	svc, _, _ := fixture()
	if _, err := svc.Create(context.Background(), "shop", owner(), CreateInput{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected currency error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "shop", Owner{}, CreateInput{Currency: "usd"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without owner, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "shop", Owner{CustomerID: "c", AnonymousID: "a"}, CreateInput{Currency: "usd"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized with two owners, got %v", err)
	}
}

func TestServiceCreateHappyPath(t *testing.T) {
	svc, repo, _ := fixture()
	cart, err := svc.Create(context.Background(), "shop", Owner{CustomerID: "cust-1"}, CreateInput{Currency: " eur "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastCreate.Currency != "EUR" || repo.lastCreate.AnonymousID != nil || *repo.lastCreate.CustomerID != "cust-1" {
		t.Fatalf("unexpected create input %+v", repo.lastCreate)
	}
	if cart.CheckoutURL != "https://checkout.test/cart/c/cart-new" {
		t.Fatalf("unexpected checkout url %q", cart.CheckoutURL)
	}
	if cart.Lines == nil || cart.DiscountCodes == nil || cart.AppliedGiftCards == nil {
		t.Fatalf("expected empty collections to be non-nil")
	}
}

func TestServiceCreateRepoError(t *testing.T) {
	svc, repo, _ := fixture()
	repo.createErr = errors.New("db down")
	if _, err := svc.Create(context.Background(), "shop", owner(), CreateInput{Currency: "USD"}); err == nil {
		t.Fatalf("expected repo error")
	}
}

func TestServiceGetOwnership(t *testing.T) {
	svc, _, _ := fixture()
	if _, err := svc.Get(context.Background(), "shop", Owner{AnonymousID: "someone-else"}, "cart-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign cart, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "shop", Owner{CustomerID: "cust-1"}, "cart-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for customer on anonymous cart, got %v", err)
	}
	cart, err := svc.Get(context.Background(), "shop", owner(), "cart-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.TotalQuantity != 1 || !cart.Cost.TotalAmount.Amount.Equal(amount("10")) {
		t.Fatalf("unexpected totals %d %s", cart.TotalQuantity, cart.Cost.TotalAmount)
	}
}

func TestServiceGetActiveAndAssign(t *testing.T) {
	svc, _, _ := fixture()
	cart, err := svc.GetActive(context.Background(), "shop", owner())
	if err != nil || cart.ID != "cart-1" {
		t.Fatalf("expected cart-1, got %v %v", cart, err)
	}
	if _, err := svc.GetActive(context.Background(), "shop", Owner{CustomerID: "cust-1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no customer cart yet, got %v", err)
	}
	assigned, err := svc.AssignCustomerFromAnonymous(context.Background(), "shop", anon, "cust-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assigned.CustomerID == nil || *assigned.CustomerID != "cust-1" {
		t.Fatalf("expected customer assigned, got %+v", assigned.CustomerID)
	}
	if _, err := svc.GetActive(context.Background(), "shop", Owner{CustomerID: "cust-1"}); err != nil {
		t.Fatalf("expected customer cart after assign, got %v", err)
	}
}

func TestServiceMutateUnsupportedAction(t *testing.T) {
	svc, _, _ := fixture()
	if _, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{Action: "Checkout"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected unsupported action, got %v", err)
	}
}

func TestServiceMutateOwnerMismatch(t *testing.T) {
	svc, repo, _ := fixture()
	_, err := svc.Mutate(context.Background(), "shop", Owner{AnonymousID: "intruder"}, "cart-1", Action{
		Action: ActionLinesAdd,
		Lines:  []LineInput{{MerchandiseID: "prod-a", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if repo.writes != 0 {
		t.Fatalf("expected no writes, got %d", repo.writes)
	}
}

func TestServiceLinesAddMergesExistingLine(t *testing.T) {
	svc, _, _ := fixture()
	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action: ActionLinesAdd,
		Lines:  []LineInput{{MerchandiseID: "prod-a", Quantity: 2}, {MerchandiseID: "prod-b", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.UserErrors) != 0 {
		t.Fatalf("unexpected user errors %+v", payload.UserErrors)
	}
	cart := payload.Cart
	if len(cart.Lines) != 2 || cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected merged mug line, got %+v", cart.Lines)
	}
	if cart.TotalQuantity != 4 || !cart.Cost.SubtotalAmount.Amount.Equal(amount("55")) {
		t.Fatalf("unexpected totals %d %s", cart.TotalQuantity, cart.Cost.SubtotalAmount)
	}
}

func TestServiceLinesAddUserErrors(t *testing.T) {
	cases := []struct {
		name  string
		lines []LineInput
		code  string
	}{
		{"zero quantity", []LineInput{{MerchandiseID: "prod-a", Quantity: 0}}, domain.UserErrorInvalid},
		{"missing merchandise", []LineInput{{Quantity: 1}}, domain.UserErrorInvalid},
		{"unknown merchandise", []LineInput{{MerchandiseID: "nope", Quantity: 1}}, domain.UserErrorMerchandiseNotFound},
		{"over inventory", []LineInput{{MerchandiseID: "prod-b", Quantity: 3}}, domain.UserErrorOutOfStock},
		{"split over inventory", []LineInput{{MerchandiseID: "prod-b", Quantity: 2}, {MerchandiseID: "prod-b", Quantity: 1}}, domain.UserErrorOutOfStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := fixture()
			payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{Action: ActionLinesAdd, Lines: tc.lines})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(payload.UserErrors) != 1 || payload.UserErrors[0].Code != tc.code {
				t.Fatalf("expected %s, got %+v", tc.code, payload.UserErrors)
			}
			if repo.writes != 0 {
				t.Fatalf("expected cart untouched, got %d writes", repo.writes)
			}
			if payload.Cart.TotalQuantity != 1 {
				t.Fatalf("expected unchanged cart, got qty %d", payload.Cart.TotalQuantity)
			}
		})
	}
}

func TestServiceLinesAddProductRepoError(t *testing.T) {
	svc, _, products := fixture()
	products.err = errors.New("db down")
	_, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action: ActionLinesAdd,
		Lines:  []LineInput{{MerchandiseID: "prod-a", Quantity: 1}},
	})
	if err == nil {
		t.Fatalf("expected system error")
	}
}

func TestServiceLinesAddIsOneBatch(t *testing.T) {
	svc, repo, _ := fixture()
	repo.addLineErr = errors.New("db down")
	_, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action: ActionLinesAdd,
		Lines:  []LineInput{{MerchandiseID: "prod-a", Quantity: 1}, {MerchandiseID: "prod-b", Quantity: 1}},
	})
	if err == nil {
		t.Fatalf("expected system error")
	}
	if len(repo.lastAdds) != 2 {
		t.Fatalf("expected both lines in one batch, got %+v", repo.lastAdds)
	}
	rec, _ := repo.get("cart-1")
	if len(rec.Cart.Lines) != 1 || rec.Cart.Lines[0].Quantity != 1 {
		t.Fatalf("expected cart unchanged after failed batch, got %+v", rec.Cart.Lines)
	}
}

func TestServiceLinesAddStockErrorNamesLine(t *testing.T) {
	svc, repo, _ := fixture()
	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action: ActionLinesAdd,
		Lines:  []LineInput{{MerchandiseID: "prod-a", Quantity: 1}, {MerchandiseID: "prod-b", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.UserErrors) != 1 {
		t.Fatalf("expected one user error, got %+v", payload.UserErrors)
	}
	ue := payload.UserErrors[0]
	if ue.Code != domain.UserErrorOutOfStock || len(ue.Field) != 3 || ue.Field[1] != "1" {
		t.Fatalf("expected out of stock on lines.1, got %+v", ue)
	}
	if repo.writes != 0 || payload.Cart.TotalQuantity != 1 {
		t.Fatalf("expected nothing written, got %d writes qty %d", repo.writes, payload.Cart.TotalQuantity)
	}
}

func TestServiceLinesUpdateOverInventory(t *testing.T) {
	svc, repo, _ := fixture()
	repo.records["cart-1"].Cart.Lines = append(repo.records["cart-1"].Cart.Lines, line("line-b", "prod-b", 1, 2500))

	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action: ActionLinesUpdate,
		Lines:  []LineInput{{ID: "line-a", Quantity: 5}, {ID: "line-b", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.UserErrors) != 1 || payload.UserErrors[0].Code != domain.UserErrorOutOfStock {
		t.Fatalf("expected out of stock, got %+v", payload.UserErrors)
	}
	if payload.Cart.Lines[0].Quantity != 1 || repo.writes != 0 {
		t.Fatalf("expected no partial update, got %+v", payload.Cart.Lines)
	}
}

func TestServiceLinesUpdate(t *testing.T) {
	svc, _, _ := fixture()
	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action: ActionLinesUpdate,
		Lines:  []LineInput{{ID: "line-a", Quantity: 4}},
	})
	if err != nil || len(payload.UserErrors) != 0 {
		t.Fatalf("unexpected result %+v %v", payload, err)
	}
	if payload.Cart.Lines[0].Quantity != 4 || !payload.Cart.Cost.TotalAmount.Amount.Equal(amount("40")) {
		t.Fatalf("unexpected cart %+v", payload.Cart)
	}

	payload, err = svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action: ActionLinesUpdate,
		Lines:  []LineInput{{ID: "line-a", Quantity: 0}},
	})
	if err != nil || len(payload.Cart.Lines) != 0 {
		t.Fatalf("expected line removed at zero, got %+v %v", payload, err)
	}
}

func TestServiceLinesUpdateUserErrors(t *testing.T) {
	svc, repo, _ := fixture()
	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action: ActionLinesUpdate,
		Lines:  []LineInput{{ID: "line-a", Quantity: -1}, {ID: "ghost", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.UserErrors) != 2 ||
		payload.UserErrors[0].Code != domain.UserErrorInvalid ||
		payload.UserErrors[1].Code != domain.UserErrorLineNotFound {
		t.Fatalf("unexpected user errors %+v", payload.UserErrors)
	}
	if repo.writes != 0 {
		t.Fatalf("expected no writes, got %d", repo.writes)
	}
}

func TestServiceLinesRemove(t *testing.T) {
	svc, repo, _ := fixture()
	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{Action: ActionLinesRemove, LineIDs: []string{"line-a", "ghost"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.UserErrors) != 1 || payload.UserErrors[0].Code != domain.UserErrorLineNotFound || repo.writes != 0 {
		t.Fatalf("expected all-or-nothing rejection, got %+v", payload.UserErrors)
	}

	payload, err = svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{Action: ActionLinesRemove, LineIDs: []string{"line-a"}})
	if err != nil || len(payload.Cart.Lines) != 0 || payload.Cart.TotalQuantity != 0 {
		t.Fatalf("expected empty cart, got %+v %v", payload, err)
	}
}

func TestServiceDiscountCodesStackAndCap(t *testing.T) {
	svc, repo, _ := fixture()
	repo.discounts["TEN"] = 1000
	repo.discounts["HALF"] = 5000
	repo.discounts["MOST"] = 9000

	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action:        ActionDiscountCodesUpdate,
		DiscountCodes: []string{" ten ", "TEN", "bogus"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	codes := payload.Cart.DiscountCodes
	if len(codes) != 2 || codes[0].Code != "TEN" || !codes[0].Applicable || codes[1].Applicable {
		t.Fatalf("unexpected codes %+v", codes)
	}
	if !payload.Cart.Cost.TotalAmount.Amount.Equal(amount("9")) {
		t.Fatalf("expected 10%% off, got %s", payload.Cart.Cost.TotalAmount)
	}

	payload, _ = svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action:        ActionDiscountCodesUpdate,
		DiscountCodes: []string{"HALF", "MOST"},
	})
	if !payload.Cart.Cost.TotalAmount.IsZero() {
		t.Fatalf("expected discounts capped at subtotal, got %s", payload.Cart.Cost.TotalAmount)
	}

	payload, _ = svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{Action: ActionDiscountCodesUpdate})
	if len(payload.Cart.DiscountCodes) != 0 || !payload.Cart.Cost.TotalAmount.Amount.Equal(amount("10")) {
		t.Fatalf("expected codes cleared, got %+v", payload.Cart)
	}
}

func TestServiceGiftCards(t *testing.T) {
	svc, repo, _ := fixture()
	repo.giftCards["gc-1"] = cartrepo.GiftCard{ID: "gc-1", Code: "GIFT-ABCD-1234", BalanceCents: 600, Currency: "USD"}
	repo.giftCards["gc-2"] = cartrepo.GiftCard{ID: "gc-2", Code: "GIFTWXYZ9876", BalanceCents: 1000, Currency: "USD"}

	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action:        ActionGiftCardCodesUpdate,
		GiftCardCodes: []string{"gift-abcd-1234", "GIFT WXYZ 9876"},
	})
	if err != nil || len(payload.UserErrors) != 0 {
		t.Fatalf("unexpected result %+v %v", payload, err)
	}
	applied := payload.Cart.AppliedGiftCards
	if len(applied) != 2 || applied[0].LastCharacters != "1234" {
		t.Fatalf("unexpected applied cards %+v", applied)
	}
	if !applied[0].AmountUsed.Amount.Equal(amount("6")) || !applied[1].AmountUsed.Amount.Equal(amount("4")) {
		t.Fatalf("expected 6 then 4 used, got %s %s", applied[0].AmountUsed, applied[1].AmountUsed)
	}
	if !payload.Cart.Cost.TotalAmount.IsZero() {
		t.Fatalf("expected zero total, got %s", payload.Cart.Cost.TotalAmount)
	}

	payload, err = svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{Action: ActionGiftCardCodesRemove, GiftCardIDs: []string{"gc-1"}})
	if err != nil || len(payload.Cart.AppliedGiftCards) != 1 {
		t.Fatalf("expected one card left, got %+v %v", payload, err)
	}

	payload, err = svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{Action: ActionGiftCardCodesRemove, GiftCardIDs: []string{"gc-1"}})
	if err != nil || len(payload.UserErrors) != 1 || payload.UserErrors[0].Code != domain.UserErrorGiftCardNotFound {
		t.Fatalf("expected gift card not found, got %+v %v", payload, err)
	}
}

func TestServiceGiftCardUnknownCode(t *testing.T) {
	svc, repo, _ := fixture()
	payload, err := svc.Mutate(context.Background(), "shop", owner(), "cart-1", Action{
		Action:        ActionGiftCardCodesUpdate,
		GiftCardCodes: []string{"NOPE"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.UserErrors) != 1 || payload.UserErrors[0].Message != "Gift card not found" || repo.writes != 0 {
		t.Fatalf("unexpected user errors %+v", payload.UserErrors)
	}
}

func TestNormalizeCodes(t *testing.T) {
	got := NormalizeDiscountCodes([]string{" save ", "", "SAVE", "vip"})
	if len(got) != 2 || got[0] != "SAVE" || got[1] != "VIP" {
		t.Fatalf("unexpected discount codes %v", got)
	}
	gift := NormalizeGiftCardCodes([]string{"ab cd", "ABCD", " "})
	if len(gift) != 1 || gift[0] != "abcd" {
		t.Fatalf("unexpected gift codes %v", gift)
	}
	if LastCharacters("ab") != "AB" || LastCharacters("gift-xyz9") != "XYZ9" {
		t.Fatalf("unexpected last characters")
	}
}
