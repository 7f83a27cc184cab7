package model

// MaxBuyMenuSlots 每个子菜单的最大格数
const MaxBuyMenuSlots = 9

// BuyMenu 用户购买菜单，每个子菜单为有序的物品 ID 列表
type BuyMenu struct {
	UserID      int64 `json:"userId"`
	Pistols     []int `json:"pistols"`
	Shotguns    []int `json:"shotguns"`
	Smgs        []int `json:"smgs"`
	Rifles      []int `json:"rifles"`
	Snipers     []int `json:"snipers"`
	Machineguns []int `json:"machineguns"`
	Melees      []int `json:"melees"`
	Equipment   []int `json:"equipment"`
}

// DefaultBuyMenu 默认配置
func DefaultBuyMenu(userID int64) *BuyMenu {
	return &BuyMenu{
		UserID:      userID,
		Pistols:     []int{2, 3, 4, 5, 6, 7, 8, 9, 10},
		Shotguns:    []int{11, 12, 13, 14, 15, 16, 17, 18, 19},
		Smgs:        []int{20, 21, 22, 23, 24, 25, 26, 27, 28},
		Rifles:      []int{29, 30, 31, 32, 33, 34, 35, 36, 37},
		Snipers:     []int{38, 39, 40, 41, 42, 43, 44, 45, 46},
		Machineguns: []int{47, 48, 49, 50, 51, 52, 53, 54, 55},
		Melees:      []int{56, 57, 58, 59, 60, 61, 62, 63, 64},
		Equipment:   []int{65, 66, 67, 68, 69, 70, 71, 72, 73},
	}
}

// BuyMenuUpdate 子菜单级别的稀疏更新，nil 表示未提供，提供的子菜单整体替换
type BuyMenuUpdate struct {
	Pistols     []int `json:"pistols" binding:"omitempty,max=9,dive,gte=0,lte=2147483647"`
	Shotguns    []int `json:"shotguns" binding:"omitempty,max=9,dive,gte=0,lte=2147483647"`
	Smgs        []int `json:"smgs" binding:"omitempty,max=9,dive,gte=0,lte=2147483647"`
	Rifles      []int `json:"rifles" binding:"omitempty,max=9,dive,gte=0,lte=2147483647"`
	Snipers     []int `json:"snipers" binding:"omitempty,max=9,dive,gte=0,lte=2147483647"`
	Machineguns []int `json:"machineguns" binding:"omitempty,max=9,dive,gte=0,lte=2147483647"`
	Melees      []int `json:"melees" binding:"omitempty,max=9,dive,gte=0,lte=2147483647"`
	Equipment   []int `json:"equipment" binding:"omitempty,max=9,dive,gte=0,lte=2147483647"`
}

// Columns 按存储列名返回已提供的子菜单
func (u *BuyMenuUpdate) Columns() map[string][]int {
	cols := make(map[string][]int, 8)
	if u == nil {
		return cols
	}
	set := func(name string, v []int) {
		if v != nil {
			cols[name] = v
		}
	}
	set("pistols", u.Pistols)
	set("shotguns", u.Shotguns)
	set("smgs", u.Smgs)
	set("rifles", u.Rifles)
	set("snipers", u.Snipers)
	set("machineguns", u.Machineguns)
	set("melees", u.Melees)
	set("equipment", u.Equipment)
	return cols
}

// Apply 合并更新
func (b *BuyMenu) Apply(u *BuyMenuUpdate) {
	for name, v := range u.Columns() {
		items := append([]int(nil), v...)
		switch name {
		case "pistols":
			b.Pistols = items
		case "shotguns":
			b.Shotguns = items
		case "smgs":
			b.Smgs = items
		case "rifles":
			b.Rifles = items
		case "snipers":
			b.Snipers = items
		case "machineguns":
			b.Machineguns = items
		case "melees":
			b.Melees = items
		case "equipment":
			b.Equipment = items
		}
	}
}

// Columns 按存储列名返回全部子菜单，nil 子菜单记为空列表
func (b *BuyMenu) Columns() map[string][]int {
	return b.asUpdate().Columns()
}

// Clone 深拷贝
func (b *BuyMenu) Clone() *BuyMenu {
	c := &BuyMenu{UserID: b.UserID}
	c.Apply(b.asUpdate())
	return c
}

func (b *BuyMenu) asUpdate() *BuyMenuUpdate {
	return &BuyMenuUpdate{
		Pistols:     nonNil(b.Pistols),
		Shotguns:    nonNil(b.Shotguns),
		Smgs:        nonNil(b.Smgs),
		Rifles:      nonNil(b.Rifles),
		Snipers:     nonNil(b.Snipers),
		Machineguns: nonNil(b.Machineguns),
		Melees:      nonNil(b.Melees),
		Equipment:   nonNil(b.Equipment),
	}
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
