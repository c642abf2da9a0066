package model

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Order 订单是权限事实的来源，本引擎只读它的状态；
// 真正的收款流程在外部支付服务完成。
// swagger:model Order
type Order struct {
	BaseModel
	OrderNo  string      `gorm:"size:36;uniqueIndex" json:"orderNo"`
	UserID   uint        `gorm:"index;not null" json:"userId"`
	CourseID uint        `gorm:"index;not null" json:"courseId"`
	Status   OrderStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`

	PaymentMethod  string `gorm:"size:20" json:"paymentMethod"`  // CREDIT, ATM, INSTALLMENT
	InvoiceType    string `gorm:"size:20" json:"invoiceType"`    // GUI(统编), MOBILE(载具), CITIZEN(自然人), DONATION(捐赠)
	InvoiceCarrier string `gorm:"size:64" json:"invoiceCarrier"` // 载具号码 / 统编 / 捐赠码

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}
