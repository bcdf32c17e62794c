package httpapi

// Voice is one entry of the hosted service's 2.0 voice catalog.
type Voice struct {
	Scene string `json:"scene"`
	Name  string `json:"name"`
	ID    string `json:"id"`
}

// DefaultVoices is the curated catalog served by /v1/voices. Any other voice
// identifier is still accepted by the synthesis endpoints; the catalog is
// informational.
var DefaultVoices = []Voice{
	{Scene: "通用场景", Name: "Vivi 2.0", ID: "zh_female_vv_uranus_bigtts"},
	{Scene: "通用场景", Name: "小何 2.0", ID: "zh_female_xiaohe_uranus_bigtts"},
	{Scene: "通用场景", Name: "云舟 2.0", ID: "zh_male_m191_uranus_bigtts"},
	{Scene: "通用场景", Name: "小天 2.0", ID: "zh_male_taocheng_uranus_bigtts"},
	{Scene: "视频配音", Name: "大壹", ID: "zh_male_dayi_saturn_bigtts"},
	{Scene: "视频配音", Name: "黑猫侦探社咪", ID: "zh_female_mizai_saturn_bigtts"},
	{Scene: "视频配音", Name: "鸡汤女", ID: "zh_female_jitangnv_saturn_bigtts"},
	{Scene: "视频配音", Name: "魅力女友", ID: "zh_female_meilinvyou_saturn_bigtts"},
	{Scene: "视频配音", Name: "流畅女声", ID: "zh_female_santongyongns_saturn_bigtts"},
	{Scene: "视频配音", Name: "儒雅逸辰", ID: "zh_male_ruyayichen_saturn_bigtts"},
	{Scene: "有声阅读", Name: "儿童绘本", ID: "zh_female_xueayi_saturn_bigtts"},
	{Scene: "角色扮演", Name: "可爱女生", ID: "saturn_zh_female_keainvsheng_tob"},
	{Scene: "角色扮演", Name: "调皮公主", ID: "saturn_zh_female_tiaopigongzhu_tob"},
	{Scene: "角色扮演", Name: "爽朗少年", ID: "saturn_zh_male_shuanglangshaonian_tob"},
	{Scene: "角色扮演", Name: "天才同桌", ID: "saturn_zh_male_tiancaitongzhuo_tob"},
	{Scene: "角色扮演", Name: "知性灿灿", ID: "saturn_zh_female_cancan_tob"},
	{Scene: "客服场景", Name: "轻盈朵朵 2.0", ID: "saturn_zh_female_qingyingduoduo_cs_tob"},
	{Scene: "客服场景", Name: "温婉珊珊 2.0", ID: "saturn_zh_female_wenwanshanshan_cs_tob"},
	{Scene: "客服场景", Name: "热情艾娜 2.0", ID: "saturn_zh_female_reqingaina_cs_tob"},
	{Scene: "多语种", Name: "Tim（美式英语）", ID: "en_male_tim_uranus_bigtts"},
	{Scene: "多语种", Name: "Dacey（美式英语）", ID: "en_female_dacey_uranus_bigtts"},
	{Scene: "多语种", Name: "Stokie（美式英语）", ID: "en_female_stokie_uranus_bigtts"},
}
